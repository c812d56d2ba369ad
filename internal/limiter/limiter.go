// Package limiter implements the bounded-memory accountant that every arena
// and pool in stationkit consults before growing. It has no dependencies
// inside the module; package arena (ByteArena, TypeArena, Pool) is what
// charges bytes through a Limiter.
package limiter

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrMemoryLimitExceeded is returned by Increase when current+n would
// exceed max. Per spec.md §4.1, the internal counter is still incremented
// on this path: callers must not assume rollback.
var ErrMemoryLimitExceeded = errors.New("limiter: memory limit exceeded")

// Limiter tracks a current/max byte budget. The zero value is not usable;
// construct with New or NewShared.
type Limiter struct {
	mu      sync.Mutex
	current uint64
	max     uint64
	refs    int32

	gaugeCurrent prometheus.Gauge
	gaugeMax     prometheus.Gauge
}

// New creates a non-shared Limiter with the given byte ceiling.
func New(max uint64) *Limiter {
	return &Limiter{max: max, refs: 1}
}

// NewShared creates a refcounted Limiter suitable for sharing across
// multiple arenas. Release must be called once per arena derived from it;
// the limiter is considered torn down once refs reaches zero, though the
// Go GC — not an explicit destructor — reclaims the struct itself.
func NewShared(max uint64, namespace string) *Limiter {
	l := &Limiter{max: max, refs: 0}
	if namespace != "" {
		l.gaugeCurrent = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "limiter_current_bytes",
			Help: "Bytes currently charged against this limiter.",
		})
		l.gaugeMax = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "limiter_max_bytes",
			Help: "Configured byte ceiling for this limiter.",
		})
		l.gaugeMax.Set(float64(max))
	}
	return l
}

// Collectors returns the Prometheus collectors registered for this
// limiter, or nil if it was constructed without a metrics namespace (the
// non-shared New path never allocates them — only arenas built on a
// long-lived shared limiter are expected to be scraped).
func (l *Limiter) Collectors() []prometheus.Collector {
	if l.gaugeCurrent == nil {
		return nil
	}
	return []prometheus.Collector{l.gaugeCurrent, l.gaugeMax}
}

// Acquire increments the reference count. Used by arenas that are
// constructed on top of a shared Limiter.
func (l *Limiter) Acquire() {
	l.mu.Lock()
	l.refs++
	l.mu.Unlock()
}

// Release decrements the reference count. Returns true if this was the
// last reference.
func (l *Limiter) Release() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refs--
	return l.refs <= 0
}

// Increase charges n bytes. On success current increases by n. On
// failure (current+n > max) current is still incremented by n — this is
// the documented non-rollback behavior carried over from the original
// implementation (see DESIGN.md's internal/limiter entry); callers that
// need exact accounting after a failed Increase must call Decrease(n)
// themselves.
func (l *Limiter) Increase(n uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current += n
	if l.gaugeCurrent != nil {
		l.gaugeCurrent.Set(float64(l.current))
	}
	if l.current > l.max {
		return errors.Wrapf(ErrMemoryLimitExceeded, "current=%d max=%d requested=%d", l.current, l.max, n)
	}
	return nil
}

// Decrease releases n bytes, saturating at zero.
func (l *Limiter) Decrease(n uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n > l.current {
		l.current = 0
	} else {
		l.current -= n
	}
	if l.gaugeCurrent != nil {
		l.gaugeCurrent.Set(float64(l.current))
	}
}

// Preallocate reserves n bytes at construction time. It is infallible by
// contract: an overflow here is a programmer error (the caller sized the
// limiter incorrectly), so it panics rather than returning an error,
// matching spec.md's "overflow is a programmer error" wording.
func (l *Limiter) Preallocate(n uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current += n
	if l.gaugeCurrent != nil {
		l.gaugeCurrent.Set(float64(l.current))
	}
	if l.current > l.max {
		panic(errors.Errorf("limiter: preallocate overflow current=%d max=%d", l.current, l.max))
	}
}

// Current returns the current charged bytes.
func (l *Limiter) Current() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Max returns the configured ceiling.
func (l *Limiter) Max() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.max
}

// Remaining returns max-current, saturating at zero (current may exceed
// max transiently after a failed Increase, per the non-rollback policy).
func (l *Limiter) Remaining() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current >= l.max {
		return 0
	}
	return l.max - l.current
}
