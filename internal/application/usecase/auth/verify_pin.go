package auth

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/domain/lockout"
	"github.com/khoahotran/folio/internal/domain/profile"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/auth"
	"github.com/khoahotran/folio/pkg/logger"
	"github.com/khoahotran/folio/pkg/metrics"
)

var tracer = otel.Tracer("auth_usecase")

type VerifyPinUseCase struct {
	secrets  profile.SecretStore
	attempts lockout.Store
	policy   lockout.Policy
	now      func() time.Time
	logger   logger.Logger
}

func NewVerifyPinUseCase(secrets profile.SecretStore, attempts lockout.Store, policy lockout.Policy, log logger.Logger) *VerifyPinUseCase {
	return &VerifyPinUseCase{
		secrets:  secrets,
		attempts: attempts,
		policy:   policy,
		now:      time.Now,
		logger:   log,
	}
}

type VerifyPinInput struct {
	Pin string
	// ClientKey identifies the caller for attempt counting, e.g. "ip:10.0.0.1".
	ClientKey string
}

type VerifyPinOutput struct {
	Success bool
	// RetryAfter is set when this failure started a lock.
	RetryAfter time.Duration
}

// Execute answers match / no match. The attempt is counted before the PIN
// is compared, so concurrent guesses from one caller cannot exceed the
// policy. Errors are TooManyAttempts while the caller is locked and Internal
// when the attempt or secret store fails; neither ever admits the caller.
func (uc *VerifyPinUseCase) Execute(ctx context.Context, input VerifyPinInput) (*VerifyPinOutput, error) {
	ctx, span := tracer.Start(ctx, "VerifyPin")
	defer span.End()

	l := uc.logger.With(zap.String("client", input.ClientKey))
	now := uc.now()

	state, decision, err := uc.attempts.Reserve(ctx, input.ClientKey, uc.policy, now)
	if err != nil {
		l.Error("Failed to reserve PIN attempt", err)
		span.RecordError(err)
		metrics.PinVerifications.WithLabelValues(metrics.ResultError).Inc()
		return nil, apperror.NewInternal("attempt store unavailable", err)
	}
	if !decision.Allowed {
		l.Warn("PIN verification refused while locked", zap.Int("remaining_seconds", decision.RemainingSeconds))
		span.SetAttributes(attribute.Bool("locked", true))
		metrics.PinVerifications.WithLabelValues(metrics.ResultLocked).Inc()
		return nil, apperror.NewTooManyAttempts(decision.Remaining())
	}

	match, err := uc.match(ctx, input.Pin)
	if err != nil {
		l.Error("Failed to read admin secret", err)
		span.RecordError(err)
		metrics.PinVerifications.WithLabelValues(metrics.ResultError).Inc()
		return nil, apperror.NewInternal("secret store unavailable", err)
	}

	if match {
		if err := uc.attempts.Reset(ctx, input.ClientKey); err != nil {
			l.Error("Failed to reset attempt state", err)
		}
		span.SetAttributes(attribute.Bool("match", true))
		metrics.PinVerifications.WithLabelValues(metrics.ResultMatch).Inc()
		return &VerifyPinOutput{Success: true}, nil
	}

	span.SetAttributes(attribute.Bool("match", false), attribute.Int("attempts", state.Attempts))
	metrics.PinVerifications.WithLabelValues(metrics.ResultMismatch).Inc()

	out := &VerifyPinOutput{Success: false}
	if _, d := uc.policy.Evaluate(state, now); !d.Allowed {
		l.Warn("PIN attempts exhausted, caller locked", zap.Int("attempts", state.Attempts))
		out.RetryAfter = d.Remaining()
	}
	return out, nil
}

// Admit gates a request on a PIN: nil on match, Unauthorized on mismatch,
// TooManyAttempts while locked, Internal when a store fails.
func (uc *VerifyPinUseCase) Admit(ctx context.Context, input VerifyPinInput) error {
	out, err := uc.Execute(ctx, input)
	if err != nil {
		return err
	}
	if !out.Success {
		if out.RetryAfter > 0 {
			return apperror.NewTooManyAttempts(out.RetryAfter)
		}
		return apperror.NewUnauthorized("admin pin rejected", nil)
	}
	return nil
}

// match never reads the store for a malformed PIN. An unset or malformed
// hash is a mismatch; only a failing store is an error.
func (uc *VerifyPinUseCase) match(ctx context.Context, pin string) (bool, error) {
	if !auth.IsValidPin(pin) {
		return false, nil
	}
	hash, err := uc.secrets.AdminPinHash(ctx)
	if err != nil {
		return false, err
	}
	return auth.CheckPinHash(pin, hash), nil
}
