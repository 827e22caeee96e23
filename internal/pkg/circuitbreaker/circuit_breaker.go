package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

var (
	ErrOpen          = errors.New("circuit breaker is open")
	ErrHalfOpenLimit = errors.New("circuit breaker half-open limit reached")
)

// Breaker fails fast after maxFailures consecutive errors and lets a trial call through after resetTimeout.
type Breaker struct {
	maxFailures      int
	resetTimeout     time.Duration
	halfOpenMaxCalls int
	now              func() time.Time
	countsAsFailure  func(error) bool

	mu            sync.Mutex
	state         State
	failureCount  int
	openedAt      time.Time
	halfOpenCalls int
}

func New(maxFailures int, resetTimeout time.Duration, halfOpenMaxCalls int) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if halfOpenMaxCalls <= 0 {
		halfOpenMaxCalls = 1
	}
	return &Breaker{
		maxFailures:      maxFailures,
		resetTimeout:     resetTimeout,
		halfOpenMaxCalls: halfOpenMaxCalls,
		now:              time.Now,
	}
}

// CountOnly restricts the errors that trip the breaker. Other errors are returned
// to the caller but count as a healthy answer from the backend.
func (b *Breaker) CountOnly(pred func(error) bool) *Breaker {
	b.mu.Lock()
	b.countsAsFailure = pred
	b.mu.Unlock()
	return b
}

// Call runs fn unless the circuit is open. Context cancellation is not counted as a failure.
func (b *Breaker) Call(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.resetTimeout {
		b.state = StateHalfOpen
		b.halfOpenCalls = 0
	}
	switch b.state {
	case StateOpen:
		b.mu.Unlock()
		return ErrOpen
	case StateHalfOpen:
		if b.halfOpenCalls >= b.halfOpenMaxCalls {
			b.mu.Unlock()
			return ErrHalfOpenLimit
		}
		b.halfOpenCalls++
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case err != nil && ctx.Err() != nil:
		// a canceled trial call gives its half-open slot back
		if b.state == StateHalfOpen && b.halfOpenCalls > 0 {
			b.halfOpenCalls--
		}
	case err != nil && (b.countsAsFailure == nil || b.countsAsFailure(err)):
		b.failureCount++
		if b.state == StateHalfOpen || b.failureCount >= b.maxFailures {
			b.state = StateOpen
			b.openedAt = b.now()
			b.halfOpenCalls = 0
		}
	default:
		b.failureCount = 0
		b.state = StateClosed
		b.halfOpenCalls = 0
	}
	return err
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount
}
