// Package luckydraw performs weighted prize selection behind a small state
// machine. The winner is fixed the moment a spin starts; the SPINNING state
// only guarantees a minimum animation duration before the result is exposed.
package luckydraw

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fjod/cart-engine/internal/domain"
)

// State is the selector's lifecycle phase.
type State string

const (
	StateIdle     State = "IDLE"
	StateSpinning State = "SPINNING"
	StateResult   State = "RESULT"
)

var (
	// ErrAlreadySpinning is returned by Spin while a spin is in progress.
	ErrAlreadySpinning = errors.New("spin already in progress")
	// ErrNoPrizes is returned when the prize set has no positive total weight.
	ErrNoPrizes = errors.New("prize set has no positive total weight")
	// ErrNoResult is returned by Acknowledge outside the RESULT state.
	ErrNoResult = errors.New("no result to acknowledge")
)

// Pick selects one prize with probability proportional to its weight.
// Zero-weight prizes can never win.
func Pick(prizes []domain.Prize, rng *rand.Rand) (domain.Prize, error) {
	total := 0.0
	for _, p := range prizes {
		if p.Weight > 0 {
			total += p.Weight
		}
	}
	if total <= 0 {
		return domain.Prize{}, ErrNoPrizes
	}

	u := rng.Float64() * total
	acc := 0.0
	for _, p := range prizes {
		if p.Weight <= 0 {
			continue
		}
		acc += p.Weight
		if u < acc {
			return p, nil
		}
	}
	// Unreachable unless float accumulation undershoots; fall back to the
	// last weighted prize.
	for i := len(prizes) - 1; i >= 0; i-- {
		if prizes[i].Weight > 0 {
			return prizes[i], nil
		}
	}
	return domain.Prize{}, ErrNoPrizes
}

// Selector runs one spin at a time: IDLE -> SPINNING -> RESULT -> IDLE.
type Selector struct {
	mu      sync.Mutex
	state   State
	prizes  []domain.Prize
	spinFor time.Duration
	rng     *rand.Rand
	now     func() time.Time
	timer   *time.Timer
	result  *domain.DrawResult
}

// Option tweaks a Selector, mainly for tests.
type Option func(*Selector)

// WithRand injects a deterministic random source.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) { s.rng = rng }
}

// WithClock injects a time source.
func WithClock(now func() time.Time) Option {
	return func(s *Selector) { s.now = now }
}

// NewSelector builds a selector over a fixed prize set. spinFor is the
// minimum time spent in SPINNING before the result becomes visible.
func NewSelector(prizes []domain.Prize, spinFor time.Duration, opts ...Option) *Selector {
	s := &Selector{
		state:   StateIdle,
		prizes:  append([]domain.Prize(nil), prizes...),
		spinFor: spinFor,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current phase.
func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Spin starts a draw. The winner is determined immediately; the returned
// channel delivers it once the minimum spin duration has elapsed and the
// selector has moved to RESULT.
func (s *Selector) Spin() (<-chan domain.DrawResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSpinning {
		return nil, ErrAlreadySpinning
	}

	prize, err := Pick(s.prizes, s.rng)
	if err != nil {
		return nil, err
	}

	result := domain.DrawResult{
		ID:        uuid.NewString(),
		PrizeID:   prize.ID,
		PrizeName: prize.Name,
		DrawnAt:   s.now(),
	}
	s.state = StateSpinning
	s.result = nil

	ch := make(chan domain.DrawResult, 1)
	s.timer = time.AfterFunc(s.spinFor, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state != StateSpinning {
			return // torn down while spinning
		}
		s.state = StateResult
		s.result = &result
		ch <- result
	})
	return ch, nil
}

// Result returns the pending draw outcome, if the selector is in RESULT.
func (s *Selector) Result() (domain.DrawResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result == nil {
		return domain.DrawResult{}, false
	}
	return *s.result, true
}

// Acknowledge consumes the result and returns the selector to IDLE, allowing
// another spin.
func (s *Selector) Acknowledge() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateResult {
		return ErrNoResult
	}
	s.state = StateIdle
	s.result = nil
	return nil
}

// Close cancels a pending spin. No RESULT transition occurs and the state is
// discarded.
func (s *Selector) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.state = StateIdle
	s.result = nil
}

// CooldownGate enforces an external spin frequency policy, for example once
// per day. It is deliberately outside the Selector, which places no limit on
// spins per session.
type CooldownGate struct {
	Interval time.Duration
	now      func() time.Time
}

// NewCooldownGate builds a gate with the given interval.
func NewCooldownGate(interval time.Duration) CooldownGate {
	return CooldownGate{Interval: interval, now: time.Now}
}

// Allowed reports whether a spin is permitted given the last draw timestamp.
// A zero last timestamp always allows.
func (g CooldownGate) Allowed(last time.Time) bool {
	if last.IsZero() {
		return true
	}
	return g.clock().Sub(last) >= g.Interval
}

// NextAllowed returns when the next spin unlocks.
func (g CooldownGate) NextAllowed(last time.Time) time.Time {
	if last.IsZero() {
		return g.clock()
	}
	return last.Add(g.Interval)
}

func (g CooldownGate) clock() time.Time {
	if g.now != nil {
		return g.now()
	}
	return time.Now()
}
