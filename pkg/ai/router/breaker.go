package router

import (
	"sync"
	"time"
)

// CircuitBreaker guards the classifier model call. Two states: closed
// (normal) and open (heuristic-only until the cool-down elapses). An
// explicit instance with an injected clock, owned by the classifier, so
// tests never leak breaker state into each other.
type CircuitBreaker struct {
	mu        sync.Mutex
	cooldown  time.Duration
	openUntil time.Time
	clock     func() time.Time
}

func NewCircuitBreaker(cooldown time.Duration, clock func() time.Time) *CircuitBreaker {
	if clock == nil {
		clock = time.Now
	}
	return &CircuitBreaker{
		cooldown: cooldown,
		clock:    clock,
	}
}

// Trip opens the breaker for the cool-down window.
func (b *CircuitBreaker) Trip() {
	b.mu.Lock()
	b.openUntil = b.clock().Add(b.cooldown)
	b.mu.Unlock()
}

// IsOpen reports whether the breaker currently blocks model calls. The
// open state expires on its own once the window elapses.
func (b *CircuitBreaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clock().Before(b.openUntil)
}
