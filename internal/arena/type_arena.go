package arena

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/guti-foundation/stationkit/internal/limiter"
)

// TypeArena owns an ordered sequence of T, charging sizeof(T) to a Limiter
// on every push and refunding sizeof(T)*n on drain. sizeof(T) is computed
// once, from the zero value, at construction — this mirrors the original
// Rust crate's core::mem::size_of::<T>() (see SPEC_FULL.md §4.1).
type TypeArena[T any] struct {
	lim      *limiter.Limiter
	items    []T
	elemSize uint64
}

// NewType constructs a TypeArena backed by lim.
func NewType[T any](lim *limiter.Limiter) *TypeArena[T] {
	lim.Acquire()
	var zero T
	return &TypeArena[T]{lim: lim, elemSize: uint64(unsafe.Sizeof(zero))}
}

// ElemSize returns the per-element charge (sizeof(T)).
func (a *TypeArena[T]) ElemSize() uint64 { return a.elemSize }

// Push charges sizeof(T) and appends v. If the charge exceeds the Limiter,
// it is refunded and v is not appended.
func (a *TypeArena[T]) Push(v T) error {
	if err := a.lim.Increase(a.elemSize); err != nil {
		a.lim.Decrease(a.elemSize)
		return errors.Wrap(err, "type_arena: push")
	}
	a.items = append(a.items, v)
	return nil
}

// Len returns the number of live elements.
func (a *TypeArena[T]) Len() int { return len(a.items) }

// At returns the element at index i.
func (a *TypeArena[T]) At(i int) T { return a.items[i] }

// Slice returns a read-only view over the arena's elements.
func (a *TypeArena[T]) Slice() []T { return a.items }

// Drain removes items[start:end], refunding sizeof(T)*(end-start) to the
// Limiter even if the arena later grows back to the same length — the
// refund happens unconditionally at drain time, not lazily.
func (a *TypeArena[T]) Drain(start, end int) []T {
	if start < 0 {
		start = 0
	}
	if end > len(a.items) {
		end = len(a.items)
	}
	if start >= end {
		return nil
	}
	drained := make([]T, end-start)
	copy(drained, a.items[start:end])
	a.items = append(a.items[:start], a.items[end:]...)
	a.lim.Decrease(a.elemSize * uint64(end-start))
	return drained
}

// Close refunds sizeof(T)*len(items) and releases the Limiter reference.
func (a *TypeArena[T]) Close() {
	a.lim.Decrease(a.elemSize * uint64(len(a.items)))
	a.lim.Release()
	a.items = nil
}
