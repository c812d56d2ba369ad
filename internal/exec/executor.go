package exec

import (
	"context"
	"time"

	"github.com/guti-foundation/stationkit/internal/entrylist"
	"github.com/guti-foundation/stationkit/internal/sleepers"
)

// Executor is one cooperative, single-threaded poll loop: "per executor
// thread, single-threaded cooperative" per spec.md §4.5. It owns a local
// FIFO/LIFO hybrid deque (schedule pushes tail, lift pushes head), a local
// sleeper directory, and local sequenced-child bookkeeping. Multiple
// Executors may run in separate goroutines (pinned to their own poll
// loop, conventionally one per OS thread via runtime.LockOSThread in the
// caller) sharing one Engine.
type Executor struct {
	engine *Engine

	local *entryDeque
	sleep *sleepers.Store[entrylist.Entry]

	// sequenced children registered against a parent entry, not yet
	// promoted onto the runnable deque.
	sequencedWaiting map[entrylist.Entry][]entrylist.Entry

	// executing is the entry currently mid-poll on this executor, or
	// entrylist.Nil between polls. Lift validates its optional parent
	// against this.
	executing entrylist.Entry

	broadcastParticipant bool
	maxPark               time.Duration
}

// ExecutorOption configures a new Executor.
type ExecutorOption func(*Executor)

// WithBroadcast opts this executor into stealing from the engine's global
// queue.
func WithBroadcast() ExecutorOption { return func(ex *Executor) { ex.broadcastParticipant = true } }

// WithMaxPark bounds how long RunOnce will park the calling goroutine
// when there is no runnable work and no matured sleeper (step 4 of
// spec.md §4.5's poll loop). Default 50ms.
func WithMaxPark(d time.Duration) ExecutorOption {
	return func(ex *Executor) { ex.maxPark = d }
}

// NewExecutor constructs an Executor bound to engine.
func NewExecutor(engine *Engine, opts ...ExecutorOption) *Executor {
	ex := &Executor{
		engine:           engine,
		local:            newEntryDeque(),
		sleep:            sleepers.New[entrylist.Entry](),
		sequencedWaiting: make(map[entrylist.Entry][]entrylist.Entry),
		maxPark:          50 * time.Millisecond,
	}
	for _, o := range opts {
		o(ex)
	}
	return ex
}

// Schedule places it at the tail of this executor's local queue. Thread-
// local: only this executor will ever poll it (unless it later spawns a
// Broadcast child).
func (ex *Executor) Schedule(it ExecutionIterator) (entrylist.Entry, error) {
	return ex.scheduleWithHandler(it, nil)
}

// ScheduleWithPanicHandler is Schedule, additionally registering a
// PanicHandler invoked if this task's step ever panics.
func (ex *Executor) ScheduleWithPanicHandler(it ExecutionIterator, onPanic PanicHandler) (entrylist.Entry, error) {
	return ex.scheduleWithHandler(it, onPanic)
}

func (ex *Executor) scheduleWithHandler(it ExecutionIterator, onPanic PanicHandler) (entrylist.Entry, error) {
	if it == nil {
		return entrylist.Nil, ErrTaskRequired
	}
	entry := ex.engine.tasks.Insert(taskSlot{iter: it, onPanic: onPanic})
	ex.local.pushBack(entry)
	return entry, nil
}

// Lift places it at the head of this executor's local queue, pre-empting
// scheduled siblings. If parent is supplied (parent.Valid()), the calling
// context must currently be executing that exact entry — i.e. Lift is
// meant to be called from within a task's own Next, spawning a child that
// should run before its scheduled siblings — otherwise
// ErrParentMustBeExecutingToLift is returned.
func (ex *Executor) Lift(it ExecutionIterator, parent entrylist.Entry) (entrylist.Entry, error) {
	if parent.Valid() && parent != ex.executing {
		return entrylist.Nil, ErrParentMustBeExecutingToLift
	}
	if it == nil {
		return entrylist.Nil, ErrTaskRequired
	}
	entry := ex.engine.tasks.Insert(taskSlot{iter: it})
	ex.local.pushFront(entry)
	return entry, nil
}

// Sequenced registers it as eligible to run only once parent has yielded
// or terminated at least once more (see the end-of-poll promotion logic
// in pollEntry). parent is required; ErrParentMustBeSupplied otherwise.
func (ex *Executor) Sequenced(it ExecutionIterator, parent entrylist.Entry) (entrylist.Entry, error) {
	if !parent.Valid() {
		return entrylist.Nil, ErrParentMustBeSupplied
	}
	if it == nil {
		return entrylist.Nil, ErrTaskRequired
	}
	entry := ex.engine.tasks.Insert(taskSlot{iter: it})
	if _, stillTracked := ex.engine.tasks.Get(parent); !stillTracked {
		// parent already terminated in this same poll-pass: promote to a
		// regular scheduled task immediately (resolves spec.md §9's open
		// question with the documented "straightforward policy").
		ex.local.pushBack(entry)
		return entry, nil
	}
	ex.sequencedWaiting[parent] = append(ex.sequencedWaiting[parent], entry)
	return entry, nil
}

// Broadcast delegates to the Engine (global, may migrate to another
// executor; the task must not close over executor-local state).
func (ex *Executor) Broadcast(it ExecutionIterator) (entrylist.Entry, error) {
	return ex.engine.Broadcast(it)
}

// Cancel vacates entry (if present) so the next poll observes a missing
// slot and skips it, per spec.md §4.5/§5's cancellation semantics.
func (ex *Executor) Cancel(entry entrylist.Entry) bool {
	return ex.engine.vacate(entry)
}

// RunOnce performs one iteration of the poll loop described in spec.md
// §4.5 steps 1-4. It returns true if it did useful work (polled a task or
// pulled one off a queue), false if it parked the goroutine because there
// was nothing to do.
func (ex *Executor) RunOnce(ctx context.Context) bool {
	if entry, ok := ex.local.popFront(); ok {
		ex.pollEntry(ctx, entry)
		return true
	}

	if matured := ex.sleep.GetMatured(time.Now()); len(matured) > 0 {
		for _, w := range matured {
			ex.local.pushFront(w.Handle)
		}
		entry, _ := ex.local.popFront()
		ex.pollEntry(ctx, entry)
		return true
	}

	if ex.broadcastParticipant {
		if entry, ok := ex.engine.stealGlobal(ctx); ok {
			ex.local.pushBack(entry)
			return true
		}
	}

	park := ex.maxPark
	if d, ok := ex.sleep.MinDuration(time.Now()); ok && d < park {
		park = d
	}
	if park > 0 {
		timer := time.NewTimer(park)
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
		timer.Stop()
	}
	return false
}

// Run drives RunOnce until ctx is cancelled.
func (ex *Executor) Run(ctx context.Context) {
	for ctx.Err() == nil {
		ex.RunOnce(ctx)
	}
}

// pollEntry polls one task exactly once, under a recover() boundary, and
// applies steps 5-11 of spec.md §4.5.
func (ex *Executor) pollEntry(ctx context.Context, entry entrylist.Entry) {
	slot, ok := ex.engine.get(entry)
	if !ok {
		// vacated while suspended (cancelled); skip silently.
		return
	}

	prevExecuting := ex.executing
	ex.executing = entry
	if ex.engine.polled != nil {
		ex.engine.polled.Inc()
	}

	state, more := ex.safeNext(ctx, slot, entry)
	ex.executing = prevExecuting

	if !more {
		ex.finishEntry(entry)
		return
	}

	// The parent has now advanced (yielded) at least once this pass:
	// promote any sequenced children to the head of the local queue,
	// ahead of other scheduled siblings, per spec.md §4.5's ordering
	// guarantee. Panicked is handled below via finishEntry instead.
	if state.Kind() != StatePanicked {
		ex.promoteSequenced(entry, false)
	}

	switch state.Kind() {
	case StatePending:
		if d, delayed := state.PendingDelay(); delayed {
			ex.sleep.Insert(entry, time.Now(), d)
		} else {
			ex.local.pushBack(entry)
		}
	case StateSpawnFailed:
		ex.engine.log.Warn("exec: spawn failed, requeuing parent", "entry", entry)
		ex.local.pushBack(entry)
	case StateSpawnFinished:
		if ex.engine.spawns != nil {
			ex.engine.spawns.Inc()
		}
		ex.local.pushBack(entry)
	case StateReadyValue, StateProgressed, StateReschedule:
		ex.local.pushBack(entry)
	case StatePanicked:
		if ex.engine.panics != nil {
			ex.engine.panics.Inc()
		}
		if slot.onPanic != nil {
			slot.onPanic(state.PanicPayload())
		}
		ex.finishEntry(entry)
	case StateDone:
		ex.finishEntry(entry)
	}
}

// safeNext calls the task's Next under a recover() boundary, per spec.md
// §5/§9's panic isolation: "each task's step is executed under a
// catch-unwind boundary... sibling tasks are unaffected; no global state
// is poisoned."
func (ex *Executor) safeNext(ctx context.Context, slot taskSlot, entry entrylist.Entry) (state State, more bool) {
	defer func() {
		if r := recover(); r != nil {
			state, more = Panicked(r), true
		}
	}()
	return slot.iter.Next(ctx, entry, ex)
}

// finishEntry frees entry and wakes any sequenced children waiting on it,
// per spec.md §4.5 step 11.
func (ex *Executor) finishEntry(entry entrylist.Entry) {
	ex.engine.vacate(entry)
	ex.promoteSequenced(entry, true)
}

// promoteSequenced moves entry's sequenced children off the waiting list
// and onto the runnable deque. If terminal is true (the parent just
// finished), children are promoted to ordinary scheduled tasks (tail);
// otherwise the parent merely yielded once, so children move to the head
// — eligible before other scheduled siblings, per spec.md §4.5's ordering
// guarantee.
func (ex *Executor) promoteSequenced(parent entrylist.Entry, terminal bool) {
	children, ok := ex.sequencedWaiting[parent]
	if !ok {
		return
	}
	delete(ex.sequencedWaiting, parent)
	if terminal {
		for _, c := range children {
			ex.local.pushBack(c)
		}
		return
	}
	// FIFO among siblings: push in reverse so repeated pushFront yields
	// the original order at the head.
	for i := len(children) - 1; i >= 0; i-- {
		ex.local.pushFront(children[i])
	}
}

// LocalQueueLen reports the number of runnable entries on this executor's
// local deque (diagnostics/tests only).
func (ex *Executor) LocalQueueLen() int { return ex.local.len() }

// PendingSleepers reports how many sleepers are registered on this
// executor (diagnostics/tests only).
func (ex *Executor) PendingSleepers() int { return ex.sleep.Len() }
