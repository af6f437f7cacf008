package router

import (
	"testing"
	"time"
)

func TestCircuitBreaker(t *testing.T) {
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	breaker := NewCircuitBreaker(5*time.Minute, clock)

	if breaker.IsOpen() {
		t.Fatal("new breaker must start closed")
	}

	breaker.Trip()
	if !breaker.IsOpen() {
		t.Fatal("breaker must be open right after Trip")
	}

	now = now.Add(4 * time.Minute)
	if !breaker.IsOpen() {
		t.Error("breaker must stay open inside the cool-down window")
	}

	now = now.Add(2 * time.Minute)
	if breaker.IsOpen() {
		t.Error("breaker must close once the cool-down elapses")
	}

	// Re-trip after expiry opens a fresh window
	breaker.Trip()
	if !breaker.IsOpen() {
		t.Error("breaker must reopen on a fresh Trip")
	}
}
