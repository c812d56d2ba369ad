package entrylist

import "sync"

// Concurrent wraps a List behind a multi-reader/single-writer lock, per
// spec.md §5 ("EntryList used across threads: wrapped in a rw-lock;
// free/parked lists protected by the writer lock").
type Concurrent[T any] struct {
	mu   sync.RWMutex
	list *List[T]
}

// NewConcurrent wraps a fresh List.
func NewConcurrent[T any]() *Concurrent[T] {
	return &Concurrent[T]{list: New[T]()}
}

func (c *Concurrent[T]) Insert(v T) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Insert(v)
}

func (c *Concurrent[T]) Get(e Entry) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.list.Get(e)
}

func (c *Concurrent[T]) Update(e Entry, v T) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Update(e, v)
}

func (c *Concurrent[T]) Take(e Entry) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Take(e)
}

func (c *Concurrent[T]) Vacate(e Entry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Vacate(e)
}

func (c *Concurrent[T]) Park(e Entry) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Park(e)
}

func (c *Concurrent[T]) Unpark(e Entry, newValue T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Unpark(e, newValue)
}

func (c *Concurrent[T]) Replace(e Entry, v T) (Entry, T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Replace(e, v)
}

func (c *Concurrent[T]) SelectTake(pred func(T) bool) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.SelectTake(pred)
}

func (c *Concurrent[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.list.Len()
}
