package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/khoahotran/folio/internal/domain/lockout"
)

type memoryAttempt struct {
	state   lockout.State
	touched time.Time
}

// MemoryAttemptStore keeps attempt state in process. time.Now readings carry
// the monotonic clock, so wall-clock jumps do not shorten a lock.
type MemoryAttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]*memoryAttempt
	window   time.Duration
	now      func() time.Time
}

// NewMemoryAttemptStore forgets a failure streak that has been idle for
// window. Locks are kept until they expire regardless of window.
func NewMemoryAttemptStore(window time.Duration) *MemoryAttemptStore {
	return &MemoryAttemptStore{
		attempts: make(map[string]*memoryAttempt),
		window:   window,
		now:      time.Now,
	}
}

func (s *MemoryAttemptStore) stale(a *memoryAttempt, now time.Time) bool {
	if !a.state.LockUntil.IsZero() {
		return !now.Before(a.state.LockUntil)
	}
	return s.window > 0 && now.Sub(a.touched) >= s.window
}

func (s *MemoryAttemptStore) Load(_ context.Context, key string) (lockout.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current(key, s.now()), nil
}

// current is the live state for key; callers hold mu.
func (s *MemoryAttemptStore) current(key string, now time.Time) lockout.State {
	a, ok := s.attempts[key]
	if !ok || (a.state.LockUntil.IsZero() && s.stale(a, now)) {
		return lockout.State{}
	}
	return a.state
}

// Reserve holds the write lock across evaluate and record, so concurrent
// callers for one key are counted one by one.
func (s *MemoryAttemptStore) Reserve(_ context.Context, key string, p lockout.Policy, now time.Time) (lockout.State, lockout.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, d := p.Reserve(s.current(key, s.now()), now)
	if !d.Allowed {
		return st, d, nil
	}
	s.attempts[key] = &memoryAttempt{state: st, touched: s.now()}
	return st, d, nil
}

func (s *MemoryAttemptStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, key)
	return nil
}

// StartCleanup drops stale entries every interval until ctx is done.
func (s *MemoryAttemptStore) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanOldEntries()
			}
		}
	}()
}

func (s *MemoryAttemptStore) cleanOldEntries() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, a := range s.attempts {
		if s.stale(a, now) {
			delete(s.attempts, key)
		}
	}
}

func (s *MemoryAttemptStore) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attempts)
}
