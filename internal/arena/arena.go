// Package arena implements the byte arena, the generic typed arena, and the
// reusable-object pool built on top of it (spec.md §3, §4.1). Growth is
// always charged to a limiter.Limiter before it happens; capacity growth is
// exact, never doubled, so that a caller who pre-sizes correctly never pays
// for slack.
package arena

import (
	"github.com/pkg/errors"

	"github.com/guti-foundation/stationkit/internal/limiter"
)

// ByteArena owns a byte sequence whose capacity is charged to a shared
// Limiter. len(buf) (not cap(buf)) is what gets refunded to the Limiter
// when the arena is dropped.
type ByteArena struct {
	lim *limiter.Limiter
	buf []byte
}

// NewByte creates a ByteArena backed by lim. The initial capacity is not
// charged; only growth beyond the current Go-slice capacity is charged, so
// an empty arena costs nothing until appended to.
func NewByte(lim *limiter.Limiter) *ByteArena {
	lim.Acquire()
	return &ByteArena{lim: lim}
}

// Append grows the arena (charging the delta above current capacity to the
// Limiter) and appends slice.
func (a *ByteArena) Append(slice []byte) error {
	need := len(a.buf) + len(slice)
	if need > cap(a.buf) {
		delta := uint64(need - cap(a.buf))
		if err := a.lim.Increase(delta); err != nil {
			return errors.Wrap(err, "arena: append growth")
		}
		grown := make([]byte, len(a.buf), need)
		copy(grown, a.buf)
		a.buf = grown
	}
	a.buf = append(a.buf, slice...)
	return nil
}

// InitWith replaces the arena's content with slice, charging only the
// positive delta in required capacity (if any) relative to the arena's
// current capacity.
func (a *ByteArena) InitWith(slice []byte) error {
	if len(slice) > cap(a.buf) {
		delta := uint64(len(slice) - cap(a.buf))
		if err := a.lim.Increase(delta); err != nil {
			return errors.Wrap(err, "arena: init growth")
		}
		a.buf = make([]byte, 0, len(slice))
	} else {
		a.buf = a.buf[:0]
	}
	a.buf = append(a.buf, slice...)
	return nil
}

// Shift compacts the arena by copying buf[n:] to buf[0:], discarding the
// first n bytes. Capacity (and thus limiter accounting) is unchanged.
func (a *ByteArena) Shift(n int) {
	if n <= 0 {
		return
	}
	if n >= len(a.buf) {
		a.buf = a.buf[:0]
		return
	}
	copy(a.buf, a.buf[n:])
	a.buf = a.buf[:len(a.buf)-n]
}

// Bytes returns a read-only view of the arena's content.
func (a *ByteArena) Bytes() []byte { return a.buf }

// Len returns the number of bytes currently held (not capacity).
func (a *ByteArena) Len() int { return len(a.buf) }

// Close returns len(buf) bytes to the Limiter, per spec.md's "dropping the
// arena returns len bytes (not capacity)". Close is idempotent.
func (a *ByteArena) Close() {
	if a.buf == nil && a.lim == nil {
		return
	}
	a.lim.Decrease(uint64(len(a.buf)))
	if a.lim.Release() {
		// last reference: nothing further to tear down explicitly, the
		// limiter itself is reclaimed by the Go garbage collector.
	}
	a.buf = nil
	a.lim = nil
}
