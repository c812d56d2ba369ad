package netstream

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/pkg/errors"
)

// Error kinds for stream/reconnect failures, per spec.md §7.
var (
	ErrUnexpectedRetryState = errors.New("netstream: unexpected retry state")
)

// CanRetry wraps an underlying error the RetryDecider has chosen to
// retry past.
type CanRetry struct{ Cause error }

func (e *CanRetry) Error() string { return "netstream: retryable: " + e.Cause.Error() }
func (e *CanRetry) Unwrap() error { return e.Cause }

// Failed wraps an underlying error the RetryDecider has classified as
// terminal — ErrNoMoreRetries is its sentinel cause when the decider
// itself (rather than a fresh dial failure) ended the sequence.
type Failed struct{ Cause error }

func (e *Failed) Error() string { return "netstream: failed: " + e.Cause.Error() }
func (e *Failed) Unwrap() error { return e.Cause }

// ErrNoMoreRetries is wrapped by Failed when the decider refuses a
// further attempt (spec.md: "returning None exhausts retries").
var ErrNoMoreRetries = errors.New("netstream: no more retries")

// RetryState is what a RetryDecider consumes/produces, per the external
// RetryDecider interface in spec.md §6.
type RetryState struct {
	Attempts     int
	TotalAllowed int
	LastWait     time.Duration
}

// RetryDecider classifies a retry attempt. Returning ok == false exhausts
// retries.
type RetryDecider interface {
	Decide(state RetryState) (RetryState, bool)
}

// ExponentialBackoff is the default RetryDecider: exponential backoff
// with min/max bounds, no jitter.
type ExponentialBackoff struct {
	Min        time.Duration
	Max        time.Duration
	MaxRetries int
}

// Decide implements RetryDecider.
func (b ExponentialBackoff) Decide(state RetryState) (RetryState, bool) {
	if state.Attempts >= b.MaxRetries {
		return RetryState{}, false
	}
	wait := b.Min << uint(state.Attempts)
	if wait <= 0 || wait > b.Max {
		wait = b.Max
	}
	return RetryState{
		Attempts:     state.Attempts + 1,
		TotalAllowed: b.MaxRetries,
		LastWait:     wait,
	}, true
}

// FixedBackoff retries MaxRetries times with a constant wait — the
// "same-duration decider" of spec.md §8 scenario 7.
type FixedBackoff struct {
	Wait       time.Duration
	MaxRetries int
}

// Decide implements RetryDecider.
func (b FixedBackoff) Decide(state RetryState) (RetryState, bool) {
	if state.Attempts >= b.MaxRetries {
		return RetryState{}, false
	}
	return RetryState{Attempts: state.Attempts + 1, TotalAllowed: b.MaxRetries, LastWait: b.Wait}, true
}

// Dialer opens a plain TCP connection; swapped out in tests against an
// always-failing fake so reconnect tests never touch the network.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

type netDialer struct{ d net.Dialer }

func (n netDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return n.d.DialContext(ctx, network, address)
}

// DefaultDialer is a Dialer backed by net.Dialer.
var DefaultDialer Dialer = netDialer{}

// StepKind discriminates what a ReconnectingStream iteration yielded.
type StepKind uint8

const (
	// StepWaiting: this dial attempt failed, but the decider granted a
	// retry; the caller should wait Wait before calling Next again.
	StepWaiting StepKind = iota
	// StepNoMoreWaiting: the wait period is over; the next Next call
	// will retry the dial.
	StepNoMoreWaiting
	// StepReady: connected.
	StepReady
	// StepExhausted: the decider refused a further attempt; the
	// iterator has terminated. The accompanying error is a *Failed.
	StepExhausted
)

// Step is one iteration result from ReconnectingStream.Next.
type Step struct {
	Kind   StepKind
	Wait   time.Duration
	Stream *RawStream
}

// ReconnectingStream is an iterator over connection attempts governed by
// a RetryDecider, per spec.md §4.7: Todo(endpoint) -> {Established,
// Reconnect(state, sleeper)} | Redo(endpoint, state) | Exhausted.
type ReconnectingStream struct {
	dialer  Dialer
	decider RetryDecider
	network string
	address string

	state          RetryState
	done           bool
	waitingElapsed bool
}

// NewReconnectingStream constructs a ReconnectingStream that dials
// network/address, retrying per decider.
func NewReconnectingStream(dialer Dialer, decider RetryDecider, network, address string) *ReconnectingStream {
	if dialer == nil {
		dialer = DefaultDialer
	}
	return &ReconnectingStream{dialer: dialer, decider: decider, network: network, address: address}
}

// Next drives one state transition. See StepKind for the shape of the
// sequence this produces across repeated calls.
func (r *ReconnectingStream) Next(ctx context.Context) (Step, error) {
	if r.done {
		return Step{}, ErrUnexpectedRetryState
	}

	if r.waitingElapsed {
		r.waitingElapsed = false
		return Step{Kind: StepNoMoreWaiting}, nil
	}

	conn, err := r.dialer.DialContext(ctx, r.network, r.address)
	if err == nil {
		r.done = true
		return Step{Kind: StepReady, Stream: NewPlain(conn, []net.Addr{conn.RemoteAddr()})}, nil
	}

	next, ok := r.decider.Decide(r.state)
	if !ok {
		r.done = true
		return Step{Kind: StepExhausted}, &Failed{Cause: fmt.Errorf("%w: %w", ErrNoMoreRetries, err)}
	}
	r.state = next
	r.waitingElapsed = true
	return Step{Kind: StepWaiting, Wait: next.LastWait}, &CanRetry{Cause: err}
}

// Run drives Next in a loop, sleeping Wait between attempts, until Ready
// or StepExhausted.
func (r *ReconnectingStream) Run(ctx context.Context) (*RawStream, error) {
	for {
		step, err := r.Next(ctx)
		switch step.Kind {
		case StepReady:
			return step.Stream, nil
		case StepWaiting:
			timer := time.NewTimer(step.Wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		case StepNoMoreWaiting:
			// immediately loop; the next Next call retries the dial.
		case StepExhausted:
			return nil, err
		}
	}
}
