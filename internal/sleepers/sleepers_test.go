package sleepers_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/guti-foundation/stationkit/internal/sleepers"
)

func TestGetMaturedIsMonotone(t *testing.T) {
	s := sleepers.New[string]()
	now := time.Now()
	s.Insert("a", now, 10*time.Millisecond)
	s.Insert("b", now, time.Hour)

	matured := s.GetMatured(now.Add(20 * time.Millisecond))
	assert.Len(t, matured, 1)
	assert.Equal(t, "a", matured[0].Handle)

	// second call at the same instant returns nothing further for "a".
	again := s.GetMatured(now.Add(20 * time.Millisecond))
	assert.Empty(t, again)
}

func TestNeverReturnsUnmaturedWaker(t *testing.T) {
	s := sleepers.New[int]()
	now := time.Now()
	s.Insert(1, now, time.Hour)
	matured := s.GetMatured(now)
	assert.Empty(t, matured)
}

func TestMinDurationZeroWhenSomeReady(t *testing.T) {
	s := sleepers.New[int]()
	now := time.Now()
	s.Insert(1, now, -time.Second) // already matured relative to "now"
	s.Insert(2, now, time.Hour)
	min, ok := s.MinDuration(now)
	assert.True(t, ok)
	assert.EqualValues(t, 0, min)
}
