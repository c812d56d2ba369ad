// Package sleepers implements the duration-indexed wake set (spec.md §3,
// §4.3): a DurationStore is a thin wrapper over an entrylist.List of
// DurationWaker values, exposed to the executor so it can decide how long
// it is safe to park a thread between poll passes.
package sleepers

import (
	"time"

	"github.com/guti-foundation/stationkit/internal/entrylist"
)

// DurationWaker pairs a caller-supplied handle with a deadline expressed
// as an origin instant plus a duration, so remaining time can be
// recomputed against any later "now".
type DurationWaker[H any] struct {
	Handle   H
	From     time.Time
	HowLong  time.Duration
}

// IsReady reports whether now has reached the deadline.
func (w DurationWaker[H]) IsReady(now time.Time) bool {
	return !now.Before(w.From.Add(w.HowLong))
}

// Remaining returns the time left until the deadline, which may be
// negative if the waker has already matured.
func (w DurationWaker[H]) Remaining(now time.Time) time.Duration {
	return w.From.Add(w.HowLong).Sub(now)
}

// Store is a DurationStore<H>: insert/update/remove/get_matured over an
// entrylist.List[DurationWaker[H]]. Not safe for concurrent use; the
// executor owns one per thread, matching the single-threaded-per-executor
// model in spec.md §5.
type Store[H any] struct {
	list *entrylist.List[DurationWaker[H]]
}

// New constructs an empty Store.
func New[H any]() *Store[H] {
	return &Store[H]{list: entrylist.New[DurationWaker[H]]()}
}

// Insert registers a new waker that matures howLong from now.
func (s *Store[H]) Insert(handle H, now time.Time, howLong time.Duration) entrylist.Entry {
	return s.list.Insert(DurationWaker[H]{Handle: handle, From: now, HowLong: howLong})
}

// Update replaces the waker at e with a fresh deadline, keeping its
// generation (and thus its Entry) unchanged.
func (s *Store[H]) Update(e entrylist.Entry, now time.Time, howLong time.Duration) bool {
	w, ok := s.list.GetMut(e)
	if !ok {
		return false
	}
	w.From = now
	w.HowLong = howLong
	return true
}

// Remove cancels a pending waker.
func (s *Store[H]) Remove(e entrylist.Entry) bool {
	return s.list.Vacate(e)
}

// GetMatured atomically removes and returns every waker whose deadline has
// passed as of now. A second call in succession (with the same or a later
// "now") returns nil for those same wakers, per spec.md's monotonicity
// invariant: once matured, a waker is gone.
func (s *Store[H]) GetMatured(now time.Time) []DurationWaker[H] {
	return s.list.SelectTake(func(w DurationWaker[H]) bool { return w.IsReady(now) })
}

// MinDuration returns the smallest remaining duration across all wakers
// still in the store (a waker already ready counts as 0), or (0, false) if
// the store is empty. It is 0 iff
// some waker is already ready (i.e. the caller should poll again
// immediately rather than sleep).
func (s *Store[H]) MinDuration(now time.Time) (time.Duration, bool) {
	var (
		min   time.Duration
		found bool
	)
	for _, pair := range s.list.FindPacked() {
		rem := pair.Value.Remaining(now)
		if rem < 0 {
			rem = 0
		}
		if !found || rem < min {
			min = rem
			found = true
		}
	}
	return min, found
}

// MaxDuration returns the largest remaining duration across all wakers
// still in the store (a waker already ready counts as 0), or (0, false) if
// the store is empty.
func (s *Store[H]) MaxDuration(now time.Time) (time.Duration, bool) {
	var (
		max   time.Duration
		found bool
	)
	for _, pair := range s.list.FindPacked() {
		rem := pair.Value.Remaining(now)
		if rem < 0 {
			rem = 0
		}
		if !found || rem > max {
			max = rem
			found = true
		}
	}
	return max, found
}

// Len reports the number of wakers not yet removed by GetMatured or
// Remove (some may already be ready).
func (s *Store[H]) Len() int { return s.list.Len() }
