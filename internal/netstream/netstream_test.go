package netstream_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guti-foundation/stationkit/internal/netstream"
)

func TestRawStreamReadWritePeekRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	stream := netstream.NewPlain(client, []net.Addr{client.RemoteAddr()})

	go func() {
		_, _ = server.Write([]byte("hello world"))
	}()

	peeked, err := stream.Peek(5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(peeked))

	buf := make([]byte, 11)
	n, err := stream.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(buf[:n]))

	done := make(chan struct{})
	go func() {
		b := make([]byte, 3)
		_, _ = server.Read(b)
		close(done)
	}()
	_, err = stream.Write([]byte("bye"))
	require.NoError(t, err)
	<-done
}

// alwaysFailDialer never succeeds, so ReconnectingStream always falls
// into the retry-decider path — spec.md §8 scenarios 6/7.
type alwaysFailDialer struct{ err error }

func (d alwaysFailDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return nil, d.err
}

func TestReconnectingStreamZeroRetriesYieldsOneFailedThenTerminates(t *testing.T) {
	dialErr := errors.New("connection refused")
	rs := netstream.NewReconnectingStream(
		alwaysFailDialer{err: dialErr},
		netstream.FixedBackoff{Wait: 200 * time.Millisecond, MaxRetries: 0},
		"tcp", "unreachable.invalid:9",
	)

	step, err := rs.Next(context.Background())
	require.Error(t, err)
	assert.Equal(t, netstream.StepExhausted, step.Kind)
	var failed *netstream.Failed
	require.ErrorAs(t, err, &failed)

	// the iterator is now terminal: any further call reports so rather
	// than dialing again.
	_, err = rs.Next(context.Background())
	assert.ErrorIs(t, err, netstream.ErrUnexpectedRetryState)
}

func TestReconnectingStreamFixedBackoffExhaustionSequence(t *testing.T) {
	dialErr := errors.New("connection refused")
	rs := netstream.NewReconnectingStream(
		alwaysFailDialer{err: dialErr},
		netstream.FixedBackoff{Wait: 200 * time.Millisecond, MaxRetries: 2},
		"tcp", "unreachable.invalid:9",
	)

	// Waiting(200ms)
	step, err := rs.Next(context.Background())
	require.Error(t, err)
	assert.Equal(t, netstream.StepWaiting, step.Kind)
	assert.Equal(t, 200*time.Millisecond, step.Wait)
	var retry *netstream.CanRetry
	require.ErrorAs(t, err, &retry)

	// NoMoreWaiting
	step, err = rs.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, netstream.StepNoMoreWaiting, step.Kind)

	// Waiting(200ms)
	step, err = rs.Next(context.Background())
	require.Error(t, err)
	assert.Equal(t, netstream.StepWaiting, step.Kind)
	assert.Equal(t, 200*time.Millisecond, step.Wait)
	require.ErrorAs(t, err, &retry)

	// NoMoreWaiting
	step, err = rs.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, netstream.StepNoMoreWaiting, step.Kind)

	// Err(Failed(_)) — decider has now seen 2 attempts, MaxRetries is 2.
	step, err = rs.Next(context.Background())
	require.Error(t, err)
	assert.Equal(t, netstream.StepExhausted, step.Kind)
	var failed *netstream.Failed
	require.ErrorAs(t, err, &failed)
}

func TestExponentialBackoffDoublesUpToMax(t *testing.T) {
	b := netstream.ExponentialBackoff{Min: 10 * time.Millisecond, Max: 50 * time.Millisecond, MaxRetries: 5}

	state := netstream.RetryState{}
	var waits []time.Duration
	for i := 0; i < 5; i++ {
		next, ok := b.Decide(state)
		require.True(t, ok)
		waits = append(waits, next.LastWait)
		state = next
	}
	_, ok := b.Decide(state)
	assert.False(t, ok)

	assert.Equal(t, []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		50 * time.Millisecond, // clamped
		50 * time.Millisecond, // clamped
	}, waits)
}

func TestReconnectingStreamRunSucceedsOnFirstDial(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, _ := ln.Accept()
		accepted <- c
	}()

	rs := netstream.NewReconnectingStream(nil, netstream.FixedBackoff{Wait: time.Millisecond, MaxRetries: 1}, "tcp", ln.Addr().String())
	stream, err := rs.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stream)
	defer stream.Close()

	select {
	case c := <-accepted:
		c.Close()
	case <-time.After(time.Second):
		t.Fatal("server never accepted connection")
	}
}
