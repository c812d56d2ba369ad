package exec

import (
	"context"

	"github.com/guti-foundation/stationkit/internal/entrylist"
)

// ExecutionIterator is what the engine polls — as opposed to task.Iterator,
// which is what the user writes. Package rx supplies the adapter that
// marries the two: it polls a task.Iterator, routes Ready/Pending/Init/
// Delayed into a channel, and translates Spawn into a call through the
// supplied Executor, yielding the State values this interface returns.
type ExecutionIterator interface {
	// Next advances the task by one poll. self is the task's own Entry in
	// the engine's task table (useful for self-referential Spawn actions
	// such as sequenced children). ok == false means the task has
	// terminated (spec.md's State::Done / inner None) and must not be
	// polled again.
	Next(ctx context.Context, self entrylist.Entry, ex *Executor) (State, bool)
}

// SpawnAction is carried by a task.Status's Spawn variant. Apply is
// invoked by the executor (never by the task itself), keeping the task's
// step pure with respect to the engine, per spec.md §4.4/§9.
type SpawnAction interface {
	Apply(ctx context.Context, parent entrylist.Entry, ex *Executor) (SpawnInfo, error)
}

// PanicHandler is invoked when a task's step panics, per spec.md §4.5
// step 10 / §9's panic isolation note. Registered at task construction.
type PanicHandler func(payload any)
