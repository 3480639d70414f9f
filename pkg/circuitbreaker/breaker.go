// Package circuitbreaker implements a windowed failure-count breaker.
// The solver uses one to stop hammering the ledger adapter after a
// run of consecutive tick failures.
package circuitbreaker

import (
	"sync"
	"time"
)

// Breaker trips after threshold failures inside the window and stays
// open until resetTimeout has elapsed since the trip.
type Breaker struct {
	mu        sync.Mutex
	enabled   bool
	threshold int
	window    time.Duration
	resetWait time.Duration

	failures    int
	lastFailure time.Time
	tripped     bool
	trippedAt   time.Time
}

// State is a snapshot of the breaker for status reporting.
type State struct {
	Enabled   bool          `json:"enabled"`
	Open      bool          `json:"open"`
	Failures  int           `json:"failures"`
	Threshold int           `json:"threshold"`
	Window    time.Duration `json:"window"`
}

// New creates a breaker. A disabled breaker never opens.
func New(enabled bool, threshold int, window, resetTimeout time.Duration) *Breaker {
	return &Breaker{
		enabled:   enabled,
		threshold: threshold,
		window:    window,
		resetWait: resetTimeout,
	}
}

// RecordFailure notes a failure and returns true if the breaker is
// (now) open.
func (b *Breaker) RecordFailure() bool {
	if !b.enabled {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()

	if b.tripped {
		if now.Sub(b.trippedAt) > b.resetWait {
			b.tripped = false
			b.failures = 0
		} else {
			return true
		}
	}

	// Failures outside the window don't accumulate.
	if now.Sub(b.lastFailure) > b.window {
		b.failures = 0
	}

	b.failures++
	b.lastFailure = now

	if b.failures >= b.threshold {
		b.tripped = true
		b.trippedAt = now
		return true
	}
	return false
}

// RecordSuccess clears the failure count. A success while open does
// not close the breaker early; the reset timeout governs that.
func (b *Breaker) RecordSuccess() {
	if !b.enabled {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.tripped {
		b.failures = 0
	}
}

// IsOpen reports whether calls should be skipped right now.
func (b *Breaker) IsOpen() bool {
	if !b.enabled {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tripped && time.Since(b.trippedAt) > b.resetWait {
		b.tripped = false
		b.failures = 0
	}
	return b.tripped
}

// Reset closes the breaker unconditionally.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tripped = false
	b.failures = 0
}

// Snapshot returns the current state for the status endpoint.
func (b *Breaker) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return State{
		Enabled:   b.enabled,
		Open:      b.tripped,
		Failures:  b.failures,
		Threshold: b.threshold,
		Window:    b.window,
	}
}
