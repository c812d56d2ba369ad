package exec

import (
	"container/list"

	"github.com/guti-foundation/stationkit/internal/entrylist"
)

// entryDeque is a double-ended queue of entrylist.Entry values, used for
// an executor's local queue: schedule pushes to the tail, lift and
// sequenced-promotion push to the head.
type entryDeque struct {
	l *list.List
}

func newEntryDeque() *entryDeque { return &entryDeque{l: list.New()} }

func (q *entryDeque) pushBack(v entrylist.Entry)  { q.l.PushBack(v) }
func (q *entryDeque) pushFront(v entrylist.Entry) { q.l.PushFront(v) }

func (q *entryDeque) popFront() (entrylist.Entry, bool) {
	e := q.l.Front()
	if e == nil {
		return entrylist.Nil, false
	}
	q.l.Remove(e)
	return e.Value.(entrylist.Entry), true
}

func (q *entryDeque) len() int { return q.l.Len() }
