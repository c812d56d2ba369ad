package connpool

import (
	"sync"
	"time"

	"github.com/guti-foundation/stationkit/internal/netstream"
)

// Key identifies a pool bucket — spec.md §4.9's (host, port, scheme).
type Key struct {
	Host   string
	Port   int
	Scheme string
}

type idleEntry struct {
	stream    *netstream.RawStream
	idleSince time.Time
}

type bucket struct {
	mu      sync.Mutex
	entries []idleEntry // end = most recently checked in, index 0 = oldest
}

// Pool is the host:port:scheme-keyed idle connection pool.
type Pool struct {
	idleTimeout time.Duration
	maxPerHost  int

	mu      sync.RWMutex
	buckets map[Key]*bucket

	stopJanitor chan struct{}
	janitorOnce sync.Once
}

// New builds a Pool. idleTimeout bounds how long a checked-in connection
// may sit unused before checkout discards it; maxPerHost bounds how many
// idle connections a single bucket retains.
func New(idleTimeout time.Duration, maxPerHost int) *Pool {
	if maxPerHost <= 0 {
		maxPerHost = 1
	}
	p := &Pool{
		idleTimeout: idleTimeout,
		maxPerHost:  maxPerHost,
		buckets:     make(map[Key]*bucket),
		stopJanitor: make(chan struct{}),
	}
	return p
}

// StartJanitor launches a background goroutine that periodically evicts
// idle connections past idleTimeout even absent checkout traffic, mirroring
// the teacher's jobs.Manager.gcLoop. Safe to call at most once; subsequent
// calls are no-ops.
func (p *Pool) StartJanitor(interval time.Duration) {
	p.janitorOnce.Do(func() {
		go p.janitorLoop(interval)
	})
}

func (p *Pool) janitorLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			p.sweep()
		case <-p.stopJanitor:
			return
		}
	}
}

// Close stops the janitor goroutine (if started) and closes every pooled
// connection.
func (p *Pool) Close() {
	close(p.stopJanitor)
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, b := range p.buckets {
		b.mu.Lock()
		for _, e := range b.entries {
			_ = e.stream.Close()
		}
		b.entries = nil
		b.mu.Unlock()
	}
}

func (p *Pool) sweep() {
	cut := time.Now().Add(-p.idleTimeout)
	p.mu.RLock()
	buckets := make([]*bucket, 0, len(p.buckets))
	for _, b := range p.buckets {
		buckets = append(buckets, b)
	}
	p.mu.RUnlock()

	for _, b := range buckets {
		b.mu.Lock()
		kept := b.entries[:0]
		for _, e := range b.entries {
			if e.idleSince.Before(cut) {
				_ = e.stream.Close()
				continue
			}
			kept = append(kept, e)
		}
		b.entries = kept
		b.mu.Unlock()
	}
}

func (p *Pool) bucketFor(k Key) *bucket {
	p.mu.RLock()
	b, ok := p.buckets[k]
	p.mu.RUnlock()
	if ok {
		return b
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if b, ok := p.buckets[k]; ok {
		return b
	}
	b = &bucket{}
	p.buckets[k] = b
	return b
}

// Checkout pops the newest idle connection for k, discarding (and
// closing) any entries that have aged past idleTimeout until it finds a
// fresh one or the bucket is empty.
func (p *Pool) Checkout(k Key) (*netstream.RawStream, bool) {
	b := p.bucketFor(k)
	b.mu.Lock()
	defer b.mu.Unlock()

	cut := time.Now().Add(-p.idleTimeout)
	for len(b.entries) > 0 {
		last := len(b.entries) - 1
		e := b.entries[last]
		b.entries = b.entries[:last]
		if e.idleSince.Before(cut) {
			_ = e.stream.Close()
			continue
		}
		return e.stream, true
	}
	return nil, false
}

// Checkin appends stream as the newest entry of k's bucket. If the bucket
// now exceeds maxPerHost, the oldest entry is popped and closed.
func (p *Pool) Checkin(k Key, stream *netstream.RawStream) {
	b := p.bucketFor(k)
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, idleEntry{stream: stream, idleSince: time.Now()})
	if len(b.entries) > p.maxPerHost {
		oldest := b.entries[0]
		b.entries = b.entries[1:]
		_ = oldest.stream.Close()
	}
}

// Len reports how many idle connections are currently pooled for k
// (diagnostic / test use).
func (p *Pool) Len(k Key) int {
	b := p.bucketFor(k)
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
