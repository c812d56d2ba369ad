package arena

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/guti-foundation/stationkit/internal/limiter"
)

// Reset is implemented by values managed by an ArenaPool; Deallocate calls
// Reset before returning the value to the free list, so a reused value
// never leaks state from its previous tenant.
type Reset interface {
	Reset()
}

// Generator produces a brand-new T when the pool's free list is empty.
type Generator[T Reset] func() T

// Pool is an object pool whose free list is a plain slice; it does not
// store its objects in a TypeArena. It maintains a non-shared
// "tracker" Limiter that mirrors the shared Limiter's capacity for local
// accounting — the shared Limiter itself was already charged at
// construction/pre-allocation time, so Allocate/Deallocate only move bytes
// within the tracker, per spec.md §3: "remaining allocation = shared
// capacity − tracker current".
type Pool[T Reset] struct {
	gen      Generator[T]
	tracker  *limiter.Limiter
	elemSize uint64
	free     []T // LIFO free list
}

// NewPool constructs a Pool sized for capacityElems values of T. The
// tracker's ceiling is capacityElems*sizeof(T); the caller is responsible
// for reserving the same amount on the shared Limiter (typically via
// Limiter.Preallocate at construction time), since the shared Limiter was
// already charged once and this pool only mirrors that reservation
// locally.
func NewPool[T Reset](capacityElems int, gen Generator[T]) *Pool[T] {
	var zero T
	elemSize := uint64(unsafe.Sizeof(zero))
	return &Pool[T]{
		gen:      gen,
		elemSize: elemSize,
		tracker:  limiter.New(uint64(capacityElems) * elemSize),
	}
}

// ElemSize returns sizeof(T) as charged per allocation.
func (p *Pool[T]) ElemSize() uint64 { return p.elemSize }

// Allocate reuses the last-freed object (LIFO) when the free list is
// non-empty; otherwise it invokes the Generator. Either way the tracker is
// charged sizeof(T).
func (p *Pool[T]) Allocate() (T, error) {
	if err := p.tracker.Increase(p.elemSize); err != nil {
		var zero T
		return zero, errors.Wrap(err, "arena: pool allocate")
	}
	if n := len(p.free); n > 0 {
		v := p.free[n-1]
		p.free = p.free[:n-1]
		return v, nil
	}
	return p.gen(), nil
}

// Deallocate resets v, pushes it onto the free list, then decrements the
// tracker by sizeof(T).
func (p *Pool[T]) Deallocate(v T) {
	v.Reset()
	p.free = append(p.free, v)
	p.tracker.Decrease(p.elemSize)
}

// Remaining reports how many more elements can be allocated before the
// tracker is exhausted.
func (p *Pool[T]) Remaining() uint64 {
	if p.elemSize == 0 {
		return 0
	}
	return p.tracker.Remaining() / p.elemSize
}

// InUse reports the number of elements currently charged against the
// tracker (allocated and not yet deallocated).
func (p *Pool[T]) InUse() uint64 {
	if p.elemSize == 0 {
		return 0
	}
	return p.tracker.Current() / p.elemSize
}

// Free reports the number of objects sitting in the free list, ready for
// reuse without invoking the Generator.
func (p *Pool[T]) Free() int { return len(p.free) }
