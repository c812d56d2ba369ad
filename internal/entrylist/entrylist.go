// Package entrylist implements the generational slot table described in
// spec.md §3/§4.2 — the canonical arena-plus-index pattern. A handle is an
// (index, generation) pair; it is valid iff the backing slot's generation
// matches and the slot is occupied. There are no back-pointers: all
// references are Entry values, which makes cancellation trivially safe —
// a vacated slot rejects any stale handle that still points at it.
package entrylist

// Entry is an opaque, comparable handle into a List. The zero value, Nil,
// never compares equal to any handle returned by List.Insert (slot 0
// starts at generation 0, so Nil — generation 0 with the sentinel
// "unset" marker — is distinguished by the valid flag, not by field
// values alone; use Entry.Valid()).
type Entry struct {
	idx   uint32
	gen   uint32
	valid bool
}

// Valid reports whether this Entry was ever produced by List.Insert (as
// opposed to the zero value).
func (e Entry) Valid() bool { return e.valid }

// Nil is the zero Entry, returned by operations that found nothing.
var Nil = Entry{}

type slot[T any] struct {
	gen      uint32
	occupied bool
	value    T
}

// List is a generational slot table. It is not safe for concurrent use;
// see Concurrent for a thread-safe wrapper.
type List[T any] struct {
	slots  []slot[T]
	free   []uint32          // free slot indices, reusable by Insert
	parked map[uint32]uint32 // slot idx -> generation, reserved but empty
}

// New constructs an empty List.
func New[T any]() *List[T] {
	return &List[T]{parked: make(map[uint32]uint32)}
}

// Insert stores v, reusing a freed slot (bumping its generation) if one
// is available, otherwise appending a new slot at generation 0.
func (l *List[T]) Insert(v T) Entry {
	if n := len(l.free); n > 0 {
		idx := l.free[n-1]
		l.free = l.free[:n-1]
		s := &l.slots[idx]
		s.gen++
		s.occupied = true
		s.value = v
		return Entry{idx: idx, gen: s.gen, valid: true}
	}
	idx := uint32(len(l.slots))
	l.slots = append(l.slots, slot[T]{gen: 0, occupied: true, value: v})
	return Entry{idx: idx, gen: 0, valid: true}
}

func (l *List[T]) lookup(e Entry) (*slot[T], bool) {
	if !e.valid || int(e.idx) >= len(l.slots) {
		return nil, false
	}
	s := &l.slots[e.idx]
	if s.gen != e.gen || !s.occupied {
		return nil, false
	}
	return s, true
}

// Get returns the value at e, or false if the handle is stale or vacated.
func (l *List[T]) Get(e Entry) (T, bool) {
	var zero T
	s, ok := l.lookup(e)
	if !ok {
		return zero, false
	}
	return s.value, true
}

// GetMut returns a pointer to the value at e for in-place mutation, or nil
// if the handle is invalid.
func (l *List[T]) GetMut(e Entry) (*T, bool) {
	s, ok := l.lookup(e)
	if !ok {
		return nil, false
	}
	return &s.value, true
}

// Take removes the value at e and frees the slot for reuse by a future
// Insert. Returns the removed value.
func (l *List[T]) Take(e Entry) (T, bool) {
	var zero T
	s, ok := l.lookup(e)
	if !ok {
		return zero, false
	}
	v := s.value
	s.value = zero
	s.occupied = false
	l.free = append(l.free, e.idx)
	return v, true
}

// Vacate is Take, discarding the value.
func (l *List[T]) Vacate(e Entry) bool {
	_, ok := l.Take(e)
	return ok
}

// Park removes the value at e but keeps the handle reserved — it is not
// added to the free list, so Insert never reuses it. Unpark (or Replace)
// refills the slot; Vacate and Take report false on a parked handle.
func (l *List[T]) Park(e Entry) (T, bool) {
	var zero T
	s, ok := l.lookup(e)
	if !ok {
		return zero, false
	}
	v := s.value
	s.value = zero
	s.occupied = false
	l.parked[e.idx] = s.gen
	return v, true
}

// Unpark restores new_value into a parked handle, keeping its generation
// unchanged. Returns false if e was not parked (or the generation no
// longer matches, e.g. the slot was separately replaced).
func (l *List[T]) Unpark(e Entry, newValue T) bool {
	gen, parked := l.parked[e.idx]
	if !parked || gen != e.gen || !e.valid || int(e.idx) >= len(l.slots) {
		return false
	}
	delete(l.parked, e.idx)
	s := &l.slots[e.idx]
	s.value = newValue
	s.occupied = true
	return true
}

// Replace bumps the generation at e's slot and stores v, invalidating any
// prior handle (including e itself). Returns the new Entry and the value
// that was previously stored, if any.
func (l *List[T]) Replace(e Entry, v T) (Entry, T, bool) {
	var zero T
	if !e.valid || int(e.idx) >= len(l.slots) {
		return Nil, zero, false
	}
	s := &l.slots[e.idx]
	_, parked := l.parked[e.idx]
	if s.gen != e.gen || (!s.occupied && !parked) {
		return Nil, zero, false
	}
	old := s.value
	hadOld := s.occupied
	s.gen++
	s.value = v
	s.occupied = true
	delete(l.parked, e.idx)
	return Entry{idx: e.idx, gen: s.gen, valid: true}, old, hadOld
}

// Update swaps in v at e, keeping the generation unchanged. Returns the
// previous value if e was valid.
func (l *List[T]) Update(e Entry, v T) (T, bool) {
	var zero T
	s, ok := l.lookup(e)
	if !ok {
		return zero, false
	}
	old := s.value
	s.value = v
	return old, true
}

// SelectTake removes every value for which pred returns true, freeing
// their slots, and returns the removed values in slot order. O(n).
func (l *List[T]) SelectTake(pred func(T) bool) []T {
	var out []T
	for i := range l.slots {
		s := &l.slots[i]
		if !s.occupied {
			continue
		}
		if pred(s.value) {
			out = append(out, s.value)
			var zero T
			s.value = zero
			s.occupied = false
			l.free = append(l.free, uint32(i))
		}
	}
	return out
}

// MapWith applies f to every occupied value in slot order, passing the
// Entry alongside it. f's return replaces the stored value in place.
func (l *List[T]) MapWith(f func(Entry, T) T) {
	for i := range l.slots {
		s := &l.slots[i]
		if !s.occupied {
			continue
		}
		e := Entry{idx: uint32(i), gen: s.gen, valid: true}
		s.value = f(e, s.value)
	}
}

// FindPacked returns every currently-occupied (Entry, value) pair, in
// slot order. O(n); intended for diagnostics/iteration, not hot paths.
func (l *List[T]) FindPacked() []struct {
	Entry Entry
	Value T
} {
	var out []struct {
		Entry Entry
		Value T
	}
	for i := range l.slots {
		s := &l.slots[i]
		if !s.occupied {
			continue
		}
		out = append(out, struct {
			Entry Entry
			Value T
		}{Entry{idx: uint32(i), gen: s.gen, valid: true}, s.value})
	}
	return out
}

// Len returns the number of occupied slots.
func (l *List[T]) Len() int {
	n := 0
	for i := range l.slots {
		if l.slots[i].occupied {
			n++
		}
	}
	return n
}
