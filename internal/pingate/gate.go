// Package pingate drives the six-slot PIN entry flow of the admin client.
// Its lockout copy is a UX hint; the server keeps the authoritative count.
package pingate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/khoahotran/folio/internal/domain/lockout"
	"github.com/khoahotran/folio/pkg/auth"
)

type State int

const (
	Idle State = iota
	Collecting
	Submitting
	Success
	Failed
	Locked
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Collecting:
		return "collecting"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failed:
		return "failed"
	case Locked:
		return "locked"
	}
	return "unknown"
}

// FailedHold is how long a wrong PIN stays on screen before input resumes.
const FailedHold = 3 * time.Second

var (
	ErrNotDigit     = errors.New("pin accepts digits only")
	ErrNotAccepting = errors.New("gate is not accepting input")
)

// VerifyResult is the server's answer. RetryAfter is set when the server
// refused the attempt because the caller is locked.
type VerifyResult struct {
	Success    bool
	RetryAfter time.Duration
}

type Verifier interface {
	Verify(ctx context.Context, pin string) (VerifyResult, error)
}

type StateStore interface {
	Load() (lockout.State, error)
	Save(lockout.State) error
}

// View is a read-only snapshot for rendering.
type View struct {
	State            State
	Filled           int
	Focus            int
	Attempts         int
	RemainingSeconds int
}

type Gate struct {
	mu       sync.Mutex
	verifier Verifier
	store    StateStore
	policy   lockout.Policy
	now      func() time.Time

	onSuccess func(pin string)
	fired     bool

	state       State
	slots       [auth.PinLength]rune
	focus       int
	lock        lockout.State
	failedUntil time.Time
	remaining   int
}

func New(verifier Verifier, store StateStore, policy lockout.Policy, onSuccess func(pin string)) *Gate {
	return &Gate{
		verifier:  verifier,
		store:     store,
		policy:    policy,
		now:       time.Now,
		onSuccess: onSuccess,
	}
}

// Start restores the persisted lockout copy. Unreadable state starts clean.
func (g *Gate) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, err := g.store.Load()
	if err != nil {
		st = lockout.State{}
	}
	g.lock = st
	g.reevaluate(g.now())
	if g.state != Locked {
		g.state = Collecting
	}
}

func (g *Gate) Input(ctx context.Context, r rune) error {
	g.mu.Lock()
	if g.state != Collecting {
		g.mu.Unlock()
		return ErrNotAccepting
	}
	if r < '0' || r > '9' {
		g.mu.Unlock()
		return ErrNotDigit
	}

	g.slots[g.focus] = r
	if g.focus < len(g.slots)-1 {
		g.focus++
	}
	if !g.complete() {
		g.mu.Unlock()
		return nil
	}

	now := g.now()
	if _, d := g.policy.Evaluate(g.lock, now); !d.Allowed {
		g.reevaluate(now)
		g.mu.Unlock()
		return nil
	}
	pin := string(g.slots[:])
	g.state = Submitting
	g.mu.Unlock()

	res, err := g.verifier.Verify(ctx, pin)

	g.mu.Lock()
	fire := g.settle(res, err)
	g.mu.Unlock()

	if fire && g.onSuccess != nil {
		g.onSuccess(pin)
	}
	return nil
}

// settle applies a verification outcome and reports whether onSuccess is due.
func (g *Gate) settle(res VerifyResult, err error) bool {
	now := g.now()

	switch {
	case err == nil && res.Success:
		g.lock = g.policy.RecordSuccess(g.lock)
		g.persist()
		g.state = Success
		if g.fired {
			return false
		}
		g.fired = true
		return true

	case err == nil && res.RetryAfter > 0:
		g.lock = lockout.State{Attempts: g.policy.MaxAttempts, LockUntil: now.Add(res.RetryAfter)}

	default:
		g.lock, _ = g.policy.Evaluate(g.lock, now)
		g.lock = g.policy.RecordFailure(g.lock, now)
	}

	g.persist()
	g.clear()
	if _, d := g.policy.Evaluate(g.lock, now); !d.Allowed {
		g.state = Locked
		g.remaining = d.RemainingSeconds
		return false
	}
	g.state = Failed
	g.failedUntil = now.Add(FailedHold)
	return false
}

func (g *Gate) Backspace() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Collecting {
		return
	}
	if g.slots[g.focus] != 0 {
		g.slots[g.focus] = 0
		return
	}
	if g.focus > 0 {
		g.focus--
		g.slots[g.focus] = 0
	}
}

// Tick advances timers. Run calls it once per second.
func (g *Gate) Tick(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case Failed:
		if !now.Before(g.failedUntil) {
			g.state = Collecting
		}
	case Locked:
		g.reevaluate(now)
	}
}

// Run ticks until ctx is done or the gate succeeds.
func (g *Gate) Run(ctx context.Context, onTick func(View)) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			g.Tick(now)
			v := g.View()
			if onTick != nil {
				onTick(v)
			}
			if v.State == Success {
				return
			}
		}
	}
}

func (g *Gate) View() View {
	g.mu.Lock()
	defer g.mu.Unlock()

	filled := 0
	for _, r := range g.slots {
		if r != 0 {
			filled++
		}
	}
	return View{
		State:            g.state,
		Filled:           filled,
		Focus:            g.focus,
		Attempts:         g.lock.Attempts,
		RemainingSeconds: g.remaining,
	}
}

// reevaluate moves between Locked and Collecting as the lock dictates. An
// expired lock starts the attempt count over.
func (g *Gate) reevaluate(now time.Time) {
	next, d := g.policy.Evaluate(g.lock, now)
	if !d.Allowed {
		g.state = Locked
		g.remaining = d.RemainingSeconds
		return
	}
	g.remaining = 0
	if !g.lock.LockUntil.IsZero() {
		g.lock = next
		g.persist()
	}
	if g.state == Locked {
		g.clear()
		g.state = Collecting
	}
}

func (g *Gate) complete() bool {
	for _, r := range g.slots {
		if r == 0 {
			return false
		}
	}
	return true
}

func (g *Gate) clear() {
	g.slots = [auth.PinLength]rune{}
	g.focus = 0
}

// persist is best effort; the server does not rely on it. Only an active
// lock survives a restart: a failure streak without one stays in memory.
func (g *Gate) persist() {
	st := g.lock
	if st.LockUntil.IsZero() {
		st = lockout.State{}
	}
	_ = g.store.Save(st)
}
