package rx

import (
	"context"
	"time"

	"github.com/guti-foundation/stationkit/internal/entrylist"
	"github.com/guti-foundation/stationkit/internal/exec"
	"github.com/guti-foundation/stationkit/internal/task"
)

// StreamKind discriminates a Stream item, per spec.md §4.6:
// Stream<Done, Pending> = {Init, Ignore, Pending(Pending), Delayed(Duration), Next(Done)}.
// Ignore is pushed when a poll happened but produced no data-relevant
// event for the consumer — concretely, the step the original
// TaskIterator returned was a Spawn, which StreamConsumingIter elides
// from the consumer's concern entirely (the spawn is still applied
// against the engine and reported to the engine as SpawnFinished/
// SpawnFailed; the stream consumer only cares about data).
type StreamKind uint8

const (
	StreamInit StreamKind = iota
	StreamIgnore
	StreamPending
	StreamDelayed
	StreamNext
)

// StreamItem is the channel payload for StreamConsumingIter.
type StreamItem[Done, Pending any] struct {
	Kind    StreamKind
	Pending Pending
	Delay   time.Duration
	Next    Done
}

// StreamConsumingIter is identical to ConsumingIter but simplifies the
// channel payload to StreamItem, eliding the Spawn constructor from the
// consumer's concern entirely (not even an Ignore marker reaches the
// consumer for Init — only Spawn outcomes are elided as Ignore; Init
// still surfaces so a consumer can distinguish "not started" from
// "no new data yet").
type StreamConsumingIter[Done, Pending any] struct {
	inner task.Iterator[Done, Pending, exec.SpawnAction]
	queue *unboundedQueue[StreamItem[Done, Pending]]
}

// NewStreamConsumingIter wraps inner.
func NewStreamConsumingIter[Done, Pending any](inner task.Iterator[Done, Pending, exec.SpawnAction], waitCycle time.Duration) (*StreamConsumingIter[Done, Pending], *RecvIterator[StreamItem[Done, Pending]]) {
	q := newUnboundedQueue[StreamItem[Done, Pending]]()
	si := &StreamConsumingIter[Done, Pending]{inner: inner, queue: q}
	return si, &RecvIterator[StreamItem[Done, Pending]]{q: q, waitCycle: waitCycle}
}

// Next implements exec.ExecutionIterator.
func (s *StreamConsumingIter[Done, Pending]) Next(ctx context.Context, self entrylist.Entry, ex *exec.Executor) (exec.State, bool) {
	status, more := s.inner.Next()
	if !more {
		s.queue.Close()
		return exec.Done(), false
	}

	switch status.Kind() {
	case task.KindInit:
		s.queue.Push(StreamItem[Done, Pending]{Kind: StreamInit})
		return exec.Progressed(), true

	case task.KindPending:
		p, _ := status.Pending()
		s.queue.Push(StreamItem[Done, Pending]{Kind: StreamPending, Pending: p})
		return exec.Pending(), true

	case task.KindDelayed:
		d, _ := status.Delay()
		s.queue.Push(StreamItem[Done, Pending]{Kind: StreamDelayed, Delay: d})
		return exec.PendingDelayed(d), true

	case task.KindReady:
		v, _ := status.Ready()
		s.queue.Push(StreamItem[Done, Pending]{Kind: StreamNext, Next: v})
		return exec.ReadyValue(self), true

	case task.KindSpawn:
		action, _ := status.Spawn()
		info, err := action.Apply(ctx, self, ex)
		s.queue.Push(StreamItem[Done, Pending]{Kind: StreamIgnore})
		if err != nil {
			return exec.SpawnFailed(self), true
		}
		return exec.SpawnFinished(info), true

	default:
		return exec.Progressed(), true
	}
}
