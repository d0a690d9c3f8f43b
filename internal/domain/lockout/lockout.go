// Package lockout decides whether PIN verification attempts are currently
// permitted. Policy is pure: callers own the State and the clock.
package lockout

import (
	"context"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultDuration    = 60 * time.Second
)

// State is the attempt counter plus an optional lock expiry. A zero LockUntil
// means no lock is recorded.
type State struct {
	Attempts  int       `json:"attempts"`
	LockUntil time.Time `json:"lockUntil,omitzero"`
}

func (s State) IsZero() bool {
	return s.Attempts == 0 && s.LockUntil.IsZero()
}

type Decision struct {
	Allowed          bool
	RemainingSeconds int
}

// Remaining is the lock duration left, rounded up to whole seconds.
func (d Decision) Remaining() time.Duration {
	return time.Duration(d.RemainingSeconds) * time.Second
}

type Policy struct {
	MaxAttempts int
	Duration    time.Duration
}

func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, Duration: DefaultDuration}
}

// NewPolicy falls back to the defaults for non-positive values.
func NewPolicy(maxAttempts int, duration time.Duration) Policy {
	p := DefaultPolicy()
	if maxAttempts > 0 {
		p.MaxAttempts = maxAttempts
	}
	if duration > 0 {
		p.Duration = duration
	}
	return p
}

// Evaluate returns the normalized state and whether an attempt may proceed.
// An expired lock is cleared and the counter reset.
func (p Policy) Evaluate(s State, now time.Time) (State, Decision) {
	if s.LockUntil.IsZero() {
		return s, Decision{Allowed: true}
	}
	if !now.Before(s.LockUntil) {
		return State{}, Decision{Allowed: true}
	}
	return s, Decision{Allowed: false, RemainingSeconds: RemainingSeconds(s.LockUntil, now)}
}

// RecordFailure counts a failed verification. Reaching MaxAttempts starts a
// lock of Duration from now.
func (p Policy) RecordFailure(s State, now time.Time) State {
	s, _ = p.Evaluate(s, now)
	s.Attempts++
	if s.Attempts >= p.MaxAttempts && s.LockUntil.IsZero() {
		s.LockUntil = now.Add(p.Duration)
	}
	return s
}

func (p Policy) RecordSuccess(State) State {
	return State{}
}

// RemainingSeconds is ceil((lockUntil-now)/1s), floored at 0.
func RemainingSeconds(lockUntil, now time.Time) int {
	d := lockUntil.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// Reserve applies p to a stored state as one step: a refused attempt leaves
// s untouched, an allowed one is counted as a failure up front. Stores run it
// atomically per key so concurrent guesses cannot share one slot.
func (p Policy) Reserve(s State, now time.Time) (State, Decision) {
	s, d := p.Evaluate(s, now)
	if !d.Allowed {
		return s, d
	}
	return p.RecordFailure(s, now), d
}

// Store keeps the authoritative State per caller key.
type Store interface {
	Load(ctx context.Context, key string) (State, error)
	// Reserve evaluates p for key and, when allowed, records the attempt
	// before the caller checks the PIN. It returns the stored state.
	Reserve(ctx context.Context, key string, p Policy, now time.Time) (State, Decision, error)
	// Reset clears key after a successful verification.
	Reset(ctx context.Context, key string) error
}
