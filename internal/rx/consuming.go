package rx

import (
	"context"
	"time"

	"github.com/guti-foundation/stationkit/internal/entrylist"
	"github.com/guti-foundation/stationkit/internal/exec"
	"github.com/guti-foundation/stationkit/internal/task"
)

// Item is what ConsumingIter forwards to its channel: every task.Status
// variant except Spawn, which is instead applied against the engine and
// reported to the engine (not the consumer) as exec.State::SpawnFinished.
type Item[Ready, Pending any] struct {
	Kind    task.Kind
	Pending Pending
	Delay   time.Duration
	Ready   Ready
}

// ConsumingIter adapts a task.Iterator into an exec.ExecutionIterator,
// forwarding Init/Pending/Delayed/Ready to a shared queue and applying
// Spawn actions through the Executor supplied by the engine at poll time.
type ConsumingIter[Ready, Pending any] struct {
	inner task.Iterator[Ready, Pending, exec.SpawnAction]
	queue *unboundedQueue[Item[Ready, Pending]]
}

// NewConsumingIter wraps inner. waitCycle configures the RecvIterator
// returned alongside it.
func NewConsumingIter[Ready, Pending any](inner task.Iterator[Ready, Pending, exec.SpawnAction], waitCycle time.Duration) (*ConsumingIter[Ready, Pending], *RecvIterator[Item[Ready, Pending]]) {
	q := newUnboundedQueue[Item[Ready, Pending]]()
	ci := &ConsumingIter[Ready, Pending]{inner: inner, queue: q}
	return ci, &RecvIterator[Item[Ready, Pending]]{q: q, waitCycle: waitCycle}
}

// Next implements exec.ExecutionIterator.
func (c *ConsumingIter[Ready, Pending]) Next(ctx context.Context, self entrylist.Entry, ex *exec.Executor) (exec.State, bool) {
	status, more := c.inner.Next()
	if !more {
		c.queue.Close()
		return exec.Done(), false
	}

	switch status.Kind() {
	case task.KindInit:
		c.queue.Push(Item[Ready, Pending]{Kind: task.KindInit})
		return exec.Progressed(), true

	case task.KindPending:
		p, _ := status.Pending()
		c.queue.Push(Item[Ready, Pending]{Kind: task.KindPending, Pending: p})
		return exec.Pending(), true

	case task.KindDelayed:
		d, _ := status.Delay()
		c.queue.Push(Item[Ready, Pending]{Kind: task.KindDelayed, Delay: d})
		return exec.PendingDelayed(d), true

	case task.KindReady:
		v, _ := status.Ready()
		c.queue.Push(Item[Ready, Pending]{Kind: task.KindReady, Ready: v})
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
