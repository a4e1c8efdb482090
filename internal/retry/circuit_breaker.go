package retry

import (
	"errors"
	"fmt"
	"sync"
)

// ErrOpen is wrapped by the error Allow returns once the breaker has
// tripped.
var ErrOpen = errors.New("circuit open")

// CircuitBreaker trips after a run of consecutive failures and then
// rejects every request until Reset.  A success anywhere in the run
// starts the count again.  The echo loop feeds it one result per
// round, so a host that answers intermittently is never given up on.
type CircuitBreaker struct {
	mu          sync.Mutex
	maxFailures int
	failures    int
	open        bool
	lastErr     error
}

// NewCircuitBreaker returns a closed breaker that opens after
// maxFailures consecutive failures.  Values below 1 are treated as 1.
func NewCircuitBreaker(maxFailures int) *CircuitBreaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &CircuitBreaker{maxFailures: maxFailures}
}

// Allow returns nil while the breaker is closed.  Once open it returns
// an error wrapping [ErrOpen] and the failure that tripped it.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if !cb.open {
		return nil
	}
	return fmt.Errorf("%w after %d consecutive failures: %v", ErrOpen, cb.failures, cb.lastErr)
}

// Record feeds the outcome of one request.  Results recorded after the
// breaker opened are ignored.
func (cb *CircuitBreaker) Record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.open {
		return
	}
	if err == nil {
		cb.failures = 0
		return
	}
	cb.failures++
	cb.lastErr = err
	if cb.failures >= cb.maxFailures {
		cb.open = true
	}
}

// Open reports whether the breaker has tripped.
func (cb *CircuitBreaker) Open() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.open
}

// Failures returns the current run of consecutive failures.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset closes the breaker and clears the run.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.open = false
	cb.failures = 0
	cb.lastErr = nil
}
