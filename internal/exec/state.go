// Package exec implements the cooperative task executor: the
// ExecutionIterator contract the engine polls, the four scheduling
// disciplines (schedule/lift/sequenced/broadcast), parent/child task
// linkage, and panic isolation, per spec.md §4.5. This is the engine side
// of the task/pending/ready contract defined in package task; package rx
// bridges user-written task.Iterator values into the ExecutionIterator
// this package polls.
package exec

import (
	"time"

	"github.com/guti-foundation/stationkit/internal/entrylist"
)

// StateKind discriminates the State union.
type StateKind uint8

const (
	StatePending StateKind = iota
	StateSpawnFailed
	StateSpawnFinished
	StateReschedule
	StateProgressed
	StateReadyValue
	StatePanicked
	StateDone
)

func (k StateKind) String() string {
	switch k {
	case StatePending:
		return "Pending"
	case StateSpawnFailed:
		return "SpawnFailed"
	case StateSpawnFinished:
		return "SpawnFinished"
	case StateReschedule:
		return "Reschedule"
	case StateProgressed:
		return "Progressed"
	case StateReadyValue:
		return "ReadyValue"
	case StatePanicked:
		return "Panicked"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// SpawnKind enumerates how a spawned task was placed, per spec.md's
// SpawnInfo.kind.
type SpawnKind uint8

const (
	SpawnNone SpawnKind = iota
	SpawnScheduled
	SpawnLifted
	SpawnSequenced
	SpawnBroadcast
)

// SpawnInfo is returned by a SpawnAction's Apply, describing how (and
// under which parent, if any) the new task was placed.
type SpawnInfo struct {
	Kind   SpawnKind
	Entry  entrylist.Entry
	Parent entrylist.Entry
}

// State is what an ExecutionIterator yields to the engine on each poll,
// per spec.md's State enum. A zero State is a Pending(None).
type State struct {
	kind         StateKind
	hasDelay     bool
	delay        time.Duration
	spawnFailed  entrylist.Entry
	spawnFinish  SpawnInfo
	readyEntry   entrylist.Entry
	panicPayload any
}

// Pending builds State::Pending(None) — requeue at tail immediately.
func Pending() State { return State{kind: StatePending} }

// PendingDelayed builds State::Pending(Some(d)) — register a sleeper
// keyed by d from now; do not requeue until it matures.
func PendingDelayed(d time.Duration) State {
	return State{kind: StatePending, hasDelay: true, delay: d}
}

// PendingDelay reports the optional delay carried by a Pending state.
func (s State) PendingDelay() (time.Duration, bool) {
	return s.delay, s.kind == StatePending && s.hasDelay
}

// SpawnFailed builds State::SpawnFailed(entry): the child was not
// scheduled.
func SpawnFailed(childWanted entrylist.Entry) State {
	return State{kind: StateSpawnFailed, spawnFailed: childWanted}
}

// SpawnFinished builds State::SpawnFinished(info).
func SpawnFinished(info SpawnInfo) State {
	return State{kind: StateSpawnFinished, spawnFinish: info}
}

// SpawnFinishedInfo returns the SpawnInfo carried by a SpawnFinished
// state.
func (s State) SpawnFinishedInfo() (SpawnInfo, bool) {
	return s.spawnFinish, s.kind == StateSpawnFinished
}

// Reschedule builds State::Reschedule.
func Reschedule() State { return State{kind: StateReschedule} }

// Progressed builds State::Progressed.
func Progressed() State { return State{kind: StateProgressed} }

// ReadyValue builds State::ReadyValue(entry).
func ReadyValue(e entrylist.Entry) State { return State{kind: StateReadyValue, readyEntry: e} }

// Panicked builds State::Panicked, carrying the recovered payload.
func Panicked(payload any) State { return State{kind: StatePanicked, panicPayload: payload} }

// PanicPayload returns the recovered panic value, if any.
func (s State) PanicPayload() any { return s.panicPayload }

// Done builds State::Done.
func Done() State { return State{kind: StateDone} }

// Kind reports which State variant this is.
func (s State) Kind() StateKind { return s.kind }
