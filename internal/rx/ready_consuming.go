package rx

import (
	"context"
	"time"

	"github.com/guti-foundation/stationkit/internal/entrylist"
	"github.com/guti-foundation/stationkit/internal/exec"
	"github.com/guti-foundation/stationkit/internal/task"
)

// ReadyConsumingIter is identical to ConsumingIter except it suppresses
// Init/Pending/Delayed on the channel — they still map to exec.Pending
// for the engine, but only Ready values reach the consumer, per spec.md
// §4.6.
type ReadyConsumingIter[Ready, Pending any] struct {
	inner task.Iterator[Ready, Pending, exec.SpawnAction]
	queue *unboundedQueue[Ready]
}

// NewReadyConsumingIter wraps inner, returning the adapter plus a
// RecvIterator over bare Ready values.
func NewReadyConsumingIter[Ready, Pending any](inner task.Iterator[Ready, Pending, exec.SpawnAction], waitCycle time.Duration) (*ReadyConsumingIter[Ready, Pending], *RecvIterator[Ready]) {
	q := newUnboundedQueue[Ready]()
	ri := &ReadyConsumingIter[Ready, Pending]{inner: inner, queue: q}
	return ri, &RecvIterator[Ready]{q: q, waitCycle: waitCycle}
}

// Next implements exec.ExecutionIterator.
func (r *ReadyConsumingIter[Ready, Pending]) Next(ctx context.Context, self entrylist.Entry, ex *exec.Executor) (exec.State, bool) {
	status, more := r.inner.Next()
	if !more {
		r.queue.Close()
		return exec.Done(), false
	}

	switch status.Kind() {
	case task.KindInit:
		return exec.Pending(), true

	case task.KindPending:
		return exec.Pending(), true

	case task.KindDelayed:
		d, _ := status.Delay()
		return exec.PendingDelayed(d), true

	case task.KindReady:
		v, _ := status.Ready()
		r.queue.Push(v)
		return exec.ReadyValue(self), true

	case task.KindSpawn:
		action, _ := status.Spawn()
		info, err := action.Apply(ctx, self, ex)
		if err != nil {
			return exec.SpawnFailed(self), true
		}
		return exec.SpawnFinished(info), true

	default:
		return exec.Progressed(), true
	}
}
