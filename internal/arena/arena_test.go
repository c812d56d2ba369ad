package arena_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guti-foundation/stationkit/internal/arena"
	"github.com/guti-foundation/stationkit/internal/limiter"
)

func TestByteArenaAppendConcatenates(t *testing.T) {
	lim := limiter.New(1024)
	a := arena.NewByte(lim)
	require.NoError(t, a.Append([]byte("hello ")))
	require.NoError(t, a.Append([]byte("world")))
	assert.Equal(t, "hello world", string(a.Bytes()))
}

func TestByteArenaShiftDropsPrefix(t *testing.T) {
	lim := limiter.New(1024)
	a := arena.NewByte(lim)
	require.NoError(t, a.Append([]byte("abcdef")))
	a.Shift(2)
	assert.Equal(t, "cdef", string(a.Bytes()))
}

func TestByteArenaCloseRefundsLen(t *testing.T) {
	lim := limiter.New(1024)
	a := arena.NewByte(lim)
	require.NoError(t, a.Append([]byte("1234")))
	before := lim.Current()
	assert.EqualValues(t, 4, before)
	a.Close()
	assert.EqualValues(t, 0, lim.Current())
}

type resettableU64 struct{ v uint64 }

func (r *resettableU64) Reset() { r.v = 0 }

func TestTypeArenaPushDrainRefunds(t *testing.T) {
	lim := limiter.New(32)
	ta := arena.NewType[uint64](lim)
	for i := 0; i < 4; i++ {
		require.NoError(t, ta.Push(uint64(i)))
	}
	assert.EqualValues(t, 32, lim.Current())
	err := ta.Push(99)
	assert.ErrorIs(t, err, limiter.ErrMemoryLimitExceeded)

	ta.Drain(0, ta.Len())
	ta.Close()
	assert.EqualValues(t, 0, lim.Current())
}

type pooledBuf struct{ data [8]byte }

func (p *pooledBuf) Reset() { *p = pooledBuf{} }

func TestArenaPoolAllocateDeallocateLIFO(t *testing.T) {
	built := 0
	p := arena.NewPool[*pooledBuf](4, func() *pooledBuf {
		built++
		return &pooledBuf{}
	})

	a, err := p.Allocate()
	require.NoError(t, err)
	b, err := p.Allocate()
	require.NoError(t, err)
	assert.Equal(t, 2, built)

	p.Deallocate(a)
	p.Deallocate(b)
	assert.Equal(t, 2, p.Free())

	// reuse should pop b first (LIFO), not invoke the generator again.
	c, err := p.Allocate()
	require.NoError(t, err)
	assert.Same(t, b, c)
	assert.Equal(t, 2, built)
}

func TestArenaPoolExhaustionAtKPlus1(t *testing.T) {
	p := arena.NewPool[*pooledBuf](2, func() *pooledBuf { return &pooledBuf{} })
	_, err := p.Allocate()
	require.NoError(t, err)
	_, err = p.Allocate()
	require.NoError(t, err)
	_, err = p.Allocate()
	assert.ErrorIs(t, err, limiter.ErrMemoryLimitExceeded)
}
