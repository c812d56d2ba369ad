package limiter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guti-foundation/stationkit/internal/limiter"
)

func TestIncreaseDecreaseRoundTrip(t *testing.T) {
	l := limiter.New(100)
	require.NoError(t, l.Increase(40))
	l.Decrease(40)
	assert.EqualValues(t, 0, l.Current())
}

func TestIncreaseFailsOverMax(t *testing.T) {
	l := limiter.New(32)
	require.NoError(t, l.Increase(32))
	err := l.Increase(1)
	assert.ErrorIs(t, err, limiter.ErrMemoryLimitExceeded)
	// non-rollback: current still reflects the attempted addition.
	assert.EqualValues(t, 33, l.Current())
}

func TestDecreaseSaturatesAtZero(t *testing.T) {
	l := limiter.New(10)
	require.NoError(t, l.Increase(3))
	l.Decrease(100)
	assert.EqualValues(t, 0, l.Current())
}

func TestPreallocateOverflowPanics(t *testing.T) {
	l := limiter.New(10)
	assert.Panics(t, func() { l.Preallocate(11) })
}

func TestRemainingSaturatesAtZeroAfterOverflow(t *testing.T) {
	l := limiter.New(10)
	_ = l.Increase(15)
	assert.EqualValues(t, 0, l.Remaining())
}
