package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreakerInitialState(t *testing.T) {
	b := New("outcomes")
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "outcomes", b.Name())
}

func TestBreakerOpensAfterFailureThreshold(t *testing.T) {
	b := New("outcomes", WithFailureThreshold(3))

	useFallback, change := b.RecordFailure()
	assert.False(t, useFallback)
	assert.False(t, change.Opened)

	useFallback, change = b.RecordFailure()
	assert.False(t, useFallback)
	assert.False(t, change.Opened)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)
	assert.True(t, b.IsOpen())
}

func TestBreakerClosesAfterSuccessThreshold(t *testing.T) {
	b := New("outcomes", WithFailureThreshold(1), WithSuccessThreshold(2))

	b.RecordFailure()
	assert.True(t, b.IsOpen())

	usePrimary, change := b.RecordSuccess()
	assert.False(t, usePrimary)
	assert.False(t, change.Closed)
	assert.True(t, b.IsOpen())

	usePrimary, change = b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.False(t, b.IsOpen())
}

func TestBreakerCountsConsecutiveOutcomesOnly(t *testing.T) {
	t.Run("success while closed resets the failure count", func(t *testing.T) {
		b := New("outcomes", WithFailureThreshold(3))

		b.RecordFailure()
		b.RecordFailure()
		b.RecordSuccess()

		b.RecordFailure()
		b.RecordFailure()
		assert.False(t, b.IsOpen())

		b.RecordFailure()
		assert.True(t, b.IsOpen())
	})

	t.Run("failure while open resets the success count", func(t *testing.T) {
		b := New("outcomes", WithFailureThreshold(1), WithSuccessThreshold(3))

		b.RecordFailure()
		b.RecordSuccess()
		b.RecordSuccess()

		b.RecordFailure()
		assert.True(t, b.IsOpen())

		b.RecordSuccess()
		b.RecordSuccess()
		assert.True(t, b.IsOpen())
		b.RecordSuccess()
		assert.False(t, b.IsOpen())
	})
}

func TestBreakerOpenStateIsSticky(t *testing.T) {
	b := New("outcomes", WithFailureThreshold(1))

	b.RecordFailure()

	// Further failures keep answering fallback without a new transition.
	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened)
}

func TestBreakerReset(t *testing.T) {
	b := New("outcomes", WithFailureThreshold(1))

	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerDefaults(t *testing.T) {
	b := New("outcomes")

	for range defaultFailureThreshold - 1 {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen())
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	// Non-positive thresholds keep the defaults.
	b2 := New("outcomes", WithFailureThreshold(0), WithSuccessThreshold(-1))
	for range defaultFailureThreshold {
		b2.RecordFailure()
	}
	assert.True(t, b2.IsOpen())
}
