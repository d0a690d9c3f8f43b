package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/khoahotran/folio/internal/domain/lockout"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type fakeSecrets struct {
	hash  string
	err   error
	reads atomic.Int32
}

func (f *fakeSecrets) AdminPinHash(context.Context) (string, error) {
	f.reads.Add(1)
	return f.hash, f.err
}

type fakeAttempts struct {
	mu         sync.Mutex
	states     map[string]lockout.State
	reserveErr error
	resets     int
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{states: map[string]lockout.State{}}
}

func (f *fakeAttempts) Load(_ context.Context, key string) (lockout.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[key], nil
}

func (f *fakeAttempts) Reserve(_ context.Context, key string, p lockout.Policy, now time.Time) (lockout.State, lockout.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reserveErr != nil {
		return lockout.State{}, lockout.Decision{}, f.reserveErr
	}
	s, d := p.Reserve(f.states[key], now)
	if d.Allowed {
		f.states[key] = s
	}
	return s, d, nil
}

func (f *fakeAttempts) Reset(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	delete(f.states, key)
	return nil
}

const testPin = "135790"

func newUseCase(t *testing.T, secrets *fakeSecrets, attempts *fakeAttempts, clock *time.Time) *VerifyPinUseCase {
	t.Helper()
	uc := NewVerifyPinUseCase(secrets, attempts, lockout.DefaultPolicy(), logger.NewNop())
	uc.now = func() time.Time { return *clock }
	return uc
}

func hashFor(t *testing.T, pin string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	require.NoError(t, err)
	return string(b)
}

func TestVerifyPin_Match(t *testing.T) {
	clock := time.Now()
	attempts := newFakeAttempts()
	uc := newUseCase(t, &fakeSecrets{hash: hashFor(t, testPin)}, attempts, &clock)

	out, err := uc.Execute(context.Background(), VerifyPinInput{Pin: testPin, ClientKey: "ip:1"})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Zero(t, out.RetryAfter)
}

func TestVerifyPin_SuccessResetsCounter(t *testing.T) {
	clock := time.Now()
	attempts := newFakeAttempts()
	uc := newUseCase(t, &fakeSecrets{hash: hashFor(t, testPin)}, attempts, &clock)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		out, err := uc.Execute(ctx, VerifyPinInput{Pin: "000000", ClientKey: "ip:1"})
		require.NoError(t, err)
		assert.False(t, out.Success)
	}
	assert.Equal(t, 2, attempts.states["ip:1"].Attempts)

	out, err := uc.Execute(ctx, VerifyPinInput{Pin: testPin, ClientKey: "ip:1"})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, 1, attempts.resets)
	assert.True(t, attempts.states["ip:1"].IsZero())
}

func TestVerifyPin_LocksAfterThreeFailuresEvenForCorrectPin(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	attempts := newFakeAttempts()
	uc := newUseCase(t, &fakeSecrets{hash: hashFor(t, testPin)}, attempts, &clock)
	ctx := context.Background()

	var last *VerifyPinOutput
	for i := 0; i < 3; i++ {
		out, err := uc.Execute(ctx, VerifyPinInput{Pin: "111111", ClientKey: "ip:1"})
		require.NoError(t, err)
		last = out
	}
	assert.Equal(t, 60*time.Second, last.RetryAfter)

	clock = clock.Add(10 * time.Second)
	_, err := uc.Execute(ctx, VerifyPinInput{Pin: testPin, ClientKey: "ip:1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrTooManyAttempts)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 50*time.Second, appErr.RetryAfter)

	out, err := uc.Execute(ctx, VerifyPinInput{Pin: testPin, ClientKey: "ip:2"})
	require.NoError(t, err)
	assert.True(t, out.Success, "other callers are not affected")

	clock = clock.Add(50 * time.Second)
	out, err = uc.Execute(ctx, VerifyPinInput{Pin: testPin, ClientKey: "ip:1"})
	require.NoError(t, err)
	assert.True(t, out.Success)
}

func TestVerifyPin_NoSecretLooksLikeWrongSecret(t *testing.T) {
	clock := time.Now()
	uc := newUseCase(t, &fakeSecrets{}, newFakeAttempts(), &clock)

	out, err := uc.Execute(context.Background(), VerifyPinInput{Pin: testPin, ClientKey: "ip:1"})
	require.NoError(t, err)
	assert.False(t, out.Success)
}

func TestVerifyPin_StoreFaultsAreInternal(t *testing.T) {
	clock := time.Now()
	ctx := context.Background()

	uc := newUseCase(t, &fakeSecrets{err: errors.New("disk on fire")}, newFakeAttempts(), &clock)
	out, err := uc.Execute(ctx, VerifyPinInput{Pin: testPin, ClientKey: "ip:1"})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, apperror.ErrInternal)

	broken := newFakeAttempts()
	broken.reserveErr = errors.New("redis down")
	secrets := &fakeSecrets{hash: hashFor(t, testPin)}
	uc = newUseCase(t, secrets, broken, &clock)
	out, err = uc.Execute(ctx, VerifyPinInput{Pin: testPin, ClientKey: "ip:1"})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, apperror.ErrInternal)
	assert.Zero(t, secrets.reads.Load(), "secret is not read without a reserved attempt")

	err = uc.Admit(ctx, VerifyPinInput{Pin: testPin, ClientKey: "ip:1"})
	assert.ErrorIs(t, err, apperror.ErrInternal)
}

func TestVerifyPin_MalformedHashIsNonMatch(t *testing.T) {
	clock := time.Now()
	uc := newUseCase(t, &fakeSecrets{hash: "garbage"}, newFakeAttempts(), &clock)

	out, err := uc.Execute(context.Background(), VerifyPinInput{Pin: testPin, ClientKey: "ip:1"})
	require.NoError(t, err)
	assert.False(t, out.Success)
}

func TestVerifyPin_ConcurrentGuessesStopAtPolicy(t *testing.T) {
	clock := time.Now()
	attempts := newFakeAttempts()
	secrets := &fakeSecrets{hash: hashFor(t, testPin)}
	uc := newUseCase(t, secrets, attempts, &clock)

	const callers = 30
	var (
		wg      sync.WaitGroup
		refused atomic.Int32
		failed  atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			out, err := uc.Execute(context.Background(), VerifyPinInput{Pin: "000000", ClientKey: "ip:1"})
			switch {
			case errors.Is(err, apperror.ErrTooManyAttempts):
				refused.Add(1)
			case err == nil && !out.Success:
				failed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 3, failed.Load())
	assert.EqualValues(t, callers-3, refused.Load())
	assert.EqualValues(t, 3, secrets.reads.Load(), "only reserved attempts reach the compare")
	assert.Equal(t, 3, attempts.states["ip:1"].Attempts)
}

func TestVerifyPin_MalformedPinCountsAsFailure(t *testing.T) {
	clock := time.Now()
	attempts := newFakeAttempts()
	uc := newUseCase(t, &fakeSecrets{hash: hashFor(t, testPin)}, attempts, &clock)

	out, err := uc.Execute(context.Background(), VerifyPinInput{Pin: "12ab", ClientKey: "ip:1"})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, 1, attempts.states["ip:1"].Attempts)
}

func TestAdmit(t *testing.T) {
	clock := time.Now()
	uc := newUseCase(t, &fakeSecrets{hash: hashFor(t, testPin)}, newFakeAttempts(), &clock)
	ctx := context.Background()

	assert.NoError(t, uc.Admit(ctx, VerifyPinInput{Pin: testPin, ClientKey: "ip:1"}))

	err := uc.Admit(ctx, VerifyPinInput{Pin: "000000", ClientKey: "ip:1"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	err = uc.Admit(ctx, VerifyPinInput{Pin: "000000", ClientKey: "ip:1"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	err = uc.Admit(ctx, VerifyPinInput{Pin: "000000", ClientKey: "ip:1"})
	assert.ErrorIs(t, err, apperror.ErrTooManyAttempts)
}
