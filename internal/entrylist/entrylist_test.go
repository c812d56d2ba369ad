package entrylist_test

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/guti-foundation/stationkit/internal/entrylist"
)

func TestGenerationalReuse(t *testing.T) {
	l := entrylist.New[int]()
	a := l.Insert(1)
	assert.True(t, l.Vacate(a))

	b := l.Insert(2)

	_, ok := l.Get(a)
	assert.False(t, ok)

	v, ok := l.Get(b)
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestSingleSlotReusedAfterTake(t *testing.T) {
	l := entrylist.New[string]()
	a := l.Insert("x")
	l.Take(a)
	b := l.Insert("y")
	assert.Equal(t, 1, l.Len())
	_, ok := l.Get(a)
	assert.False(t, ok)
	v, ok := l.Get(b)
	assert.True(t, ok)
	assert.Equal(t, "y", v)
}

func TestParkUnparkPreservesGeneration(t *testing.T) {
	l := entrylist.New[int]()
	a := l.Insert(10)
	old, ok := l.Park(a)
	assert.True(t, ok)
	assert.Equal(t, 10, old)

	// parked slot must not be reused by Insert.
	other := l.Insert(99)
	assert.NotEqual(t, a, other)

	ok = l.Unpark(a, 20)
	assert.True(t, ok)
	v, ok := l.Get(a)
	assert.True(t, ok)
	assert.Equal(t, 20, v)
}

func TestReplaceInvalidatesPriorHandle(t *testing.T) {
	l := entrylist.New[int]()
	a := l.Insert(1)
	newEntry, old, hadOld := l.Replace(a, 2)
	assert.True(t, hadOld)
	assert.Equal(t, 1, old)

	_, ok := l.Get(a)
	assert.False(t, ok)

	v, ok := l.Get(newEntry)
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestSelectTakeRemovesMatching(t *testing.T) {
	l := entrylist.New[int]()
	for i := 0; i < 5; i++ {
		l.Insert(i)
	}
	removed := l.SelectTake(func(v int) bool { return v%2 == 0 })
	assert.ElementsMatch(t, []int{0, 2, 4}, removed)
	assert.Equal(t, 2, l.Len())
}

func TestSelectTakeRoundTripsExactValueSet(t *testing.T) {
	l := entrylist.New[string]()
	for _, v := range []string{"a", "b", "c", "d"} {
		l.Insert(v)
	}
	removed := l.SelectTake(func(v string) bool { return v == "b" || v == "d" })
	sort.Strings(removed)

	want := []string{"b", "d"}
	if diff := cmp.Diff(want, removed); diff != "" {
		t.Fatalf("SelectTake result mismatch (-want +got):\n%s", diff)
	}
}

func TestInvalidHandlesAreTotal(t *testing.T) {
	l := entrylist.New[int]()
	_, ok := l.Get(entrylist.Nil)
	assert.False(t, ok)
	assert.False(t, l.Vacate(entrylist.Nil))
	assert.False(t, l.Unpark(entrylist.Nil, 1))
}
