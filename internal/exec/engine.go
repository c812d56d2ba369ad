package exec

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"

	"github.com/guti-foundation/stationkit/internal/entrylist"
)

// taskSlot is what the shared task table stores: the boxed iterator plus
// an optional panic handler registered at construction.
type taskSlot struct {
	iter    ExecutionIterator
	onPanic PanicHandler
}

// Engine owns the task table shared by every Executor plus the global
// broadcast queue. Per spec.md §5, multiple Executors may run in parallel
// OS threads; only the global queue and task table are shared state —
// everything else (local FIFO, sleepers, sequenced bookkeeping) is
// executor-local.
type Engine struct {
	tasks  *entrylist.Concurrent[taskSlot]
	global chan entrylist.Entry
	sem    *semaphore.Weighted

	log *slog.Logger

	polled   prometheus.Counter
	panics   prometheus.Counter
	spawns   prometheus.Counter
	rejected prometheus.Counter
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger overrides the default logger (slog.Default()).
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

// WithGlobalQueueCapacity bounds how many broadcast tasks may be pending
// handoff before Broadcast returns ErrQueueFull.
func WithGlobalQueueCapacity(n int) Option {
	return func(e *Engine) { e.global = make(chan entrylist.Entry, n) }
}

// WithGlobalStealConcurrency bounds how many executors may be inside
// stealGlobal's critical section at once, guarding against an unbounded
// stampede of executors draining the broadcast queue the moment work
// lands on it. Default is effectively unbounded (weight 1<<20).
func WithGlobalStealConcurrency(n int64) Option {
	return func(e *Engine) { e.sem = semaphore.NewWeighted(n) }
}

// WithMetricsNamespace registers Prometheus counters under namespace. If
// never called, the engine tracks nothing (no collector registration is
// attempted), matching the "ambient, not mandatory" nature of metrics.
func WithMetricsNamespace(namespace string) Option {
	return func(e *Engine) {
		e.polled = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "tasks_polled_total", Help: "Total ExecutionIterator.Next calls.",
		})
		e.panics = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "tasks_panicked_total", Help: "Total tasks that panicked during a step.",
		})
		e.spawns = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "tasks_spawned_total", Help: "Total successful Spawn applications.",
		})
		e.rejected = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "broadcast_rejected_total", Help: "Total Broadcast calls rejected (queue full/closed).",
		})
	}
}

// Collectors returns the engine's Prometheus collectors, or nil if
// WithMetricsNamespace was never used.
func (e *Engine) Collectors() []prometheus.Collector {
	if e.polled == nil {
		return nil
	}
	return []prometheus.Collector{e.polled, e.panics, e.spawns, e.rejected}
}

// NewEngine constructs an Engine. The default global queue capacity is
// 1024; the default global-drain semaphore weight (1<<20) is high enough
// not to bind in practice — every steal still acquires/releases it (see
// stealGlobal), so WithGlobalStealConcurrency is how a caller actually
// caps concurrent broadcast-queue draining.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		tasks:  entrylist.NewConcurrent[taskSlot](),
		global: make(chan entrylist.Entry, 1024),
		sem:    semaphore.NewWeighted(1 << 20),
		log:    slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Broadcast places it at the tail of the global queue, with no
// inter-executor ordering guarantee, per spec.md §4.5. Any participating
// Executor may steal and run it.
func (e *Engine) Broadcast(it ExecutionIterator) (entrylist.Entry, error) {
	return e.broadcastWithHandler(it, nil)
}

func (e *Engine) broadcastWithHandler(it ExecutionIterator, onPanic PanicHandler) (entrylist.Entry, error) {
	if it == nil {
		return entrylist.Nil, ErrTaskRequired
	}
	entry := e.tasks.Insert(taskSlot{iter: it, onPanic: onPanic})
	select {
	case e.global <- entry:
		return entry, nil
	default:
		e.tasks.Vacate(entry)
		if e.rejected != nil {
			e.rejected.Inc()
		}
		return entrylist.Nil, ErrQueueFull
	}
}

// stealGlobal attempts one non-blocking pop from the global queue. The
// acquire/release around the receive is what WithGlobalStealConcurrency
// actually bounds: an executor that can't get a permit just treats the
// global queue as empty this round instead of piling on.
func (e *Engine) stealGlobal(ctx context.Context) (entrylist.Entry, bool) {
	if !e.sem.TryAcquire(1) {
		return entrylist.Nil, false
	}
	defer e.sem.Release(1)

	select {
	case entry, ok := <-e.global:
		if !ok {
			return entrylist.Nil, false
		}
		return entry, true
	default:
		return entrylist.Nil, false
	}
}

// get returns the boxed task at entry, if still present.
func (e *Engine) get(entry entrylist.Entry) (taskSlot, bool) {
	return e.tasks.Get(entry)
}

// Lookup reports whether entry is still present in the task table
// (diagnostics/tests; production code should rely on State::Done instead
// of polling liveness out of band).
func (e *Engine) Lookup(entry entrylist.Entry) (ExecutionIterator, bool) {
	slot, ok := e.tasks.Get(entry)
	if !ok {
		return nil, false
	}
	return slot.iter, true
}

// vacate removes entry from the task table unconditionally.
func (e *Engine) vacate(entry entrylist.Entry) bool {
	return e.tasks.Vacate(entry)
}
