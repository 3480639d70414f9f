package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerTripsAtThreshold(t *testing.T) {
	b := New(true, 3, time.Minute, time.Minute)

	assert.False(t, b.RecordFailure())
	assert.False(t, b.RecordFailure())
	assert.False(t, b.IsOpen())

	assert.True(t, b.RecordFailure())
	assert.True(t, b.IsOpen())
}

func TestBreakerDisabledNeverOpens(t *testing.T) {
	b := New(false, 1, time.Minute, time.Minute)

	for i := 0; i < 10; i++ {
		assert.False(t, b.RecordFailure())
	}
	assert.False(t, b.IsOpen())
}

func TestBreakerSuccessClearsFailures(t *testing.T) {
	b := New(true, 3, time.Minute, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()

	// The count restarted, so two more failures don't trip.
	assert.False(t, b.RecordFailure())
	assert.False(t, b.RecordFailure())
	assert.False(t, b.IsOpen())
}

func TestBreakerClosesAfterResetTimeout(t *testing.T) {
	b := New(true, 1, time.Minute, 10*time.Millisecond)

	assert.True(t, b.RecordFailure())
	assert.True(t, b.IsOpen())

	time.Sleep(20 * time.Millisecond)
	assert.False(t, b.IsOpen())
}

func TestBreakerReset(t *testing.T) {
	b := New(true, 1, time.Minute, time.Minute)

	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
}

func TestBreakerSnapshot(t *testing.T) {
	b := New(true, 5, 30*time.Second, time.Minute)
	b.RecordFailure()
	b.RecordFailure()

	state := b.Snapshot()
	assert.True(t, state.Enabled)
	assert.False(t, state.Open)
	assert.Equal(t, 2, state.Failures)
	assert.Equal(t, 5, state.Threshold)
	assert.Equal(t, 30*time.Second, state.Window)
}
