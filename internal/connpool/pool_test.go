package connpool_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guti-foundation/stationkit/internal/connpool"
	"github.com/guti-foundation/stationkit/internal/netstream"
)

func newPipeStream() (*netstream.RawStream, net.Conn) {
	client, server := net.Pipe()
	return netstream.NewPlain(client, nil), server
}

func TestCheckoutEmptyBucketReturnsFalse(t *testing.T) {
	p := connpool.New(time.Minute, 2)
	_, ok := p.Checkout(connpool.Key{Host: "example.com", Port: 80, Scheme: "http"})
	assert.False(t, ok)
}

func TestCheckinThenCheckoutReturnsNewestFirst(t *testing.T) {
	p := connpool.New(time.Minute, 4)
	key := connpool.Key{Host: "example.com", Port: 80, Scheme: "http"}

	s1, srv1 := newPipeStream()
	defer srv1.Close()
	s2, srv2 := newPipeStream()
	defer srv2.Close()

	p.Checkin(key, s1)
	p.Checkin(key, s2)

	got, ok := p.Checkout(key)
	require.True(t, ok)
	assert.Same(t, s2, got)

	got, ok = p.Checkout(key)
	require.True(t, ok)
	assert.Same(t, s1, got)

	_, ok = p.Checkout(key)
	assert.False(t, ok)
}

func TestCheckinEvictsOldestBeyondMaxPerHost(t *testing.T) {
	p := connpool.New(time.Minute, 1)
	key := connpool.Key{Host: "example.com", Port: 80, Scheme: "http"}

	s1, srv1 := newPipeStream()
	defer srv1.Close()
	s2, srv2 := newPipeStream()
	defer srv2.Close()

	p.Checkin(key, s1)
	p.Checkin(key, s2)
	assert.Equal(t, 1, p.Len(key))

	got, ok := p.Checkout(key)
	require.True(t, ok)
	assert.Same(t, s2, got)
}

func TestCheckoutDiscardsExpiredEntries(t *testing.T) {
	p := connpool.New(time.Millisecond, 4)
	key := connpool.Key{Host: "example.com", Port: 80, Scheme: "http"}

	s1, srv1 := newPipeStream()
	defer srv1.Close()
	p.Checkin(key, s1)

	time.Sleep(5 * time.Millisecond)
	_, ok := p.Checkout(key)
	assert.False(t, ok)
}

func TestSweepEvictsViaJanitor(t *testing.T) {
	p := connpool.New(2*time.Millisecond, 4)
	key := connpool.Key{Host: "example.com", Port: 80, Scheme: "http"}

	s1, srv1 := newPipeStream()
	defer srv1.Close()
	p.Checkin(key, s1)
	p.StartJanitor(time.Millisecond)
	defer p.Close()

	require.Eventually(t, func() bool {
		return p.Len(key) == 0
	}, time.Second, 5*time.Millisecond)
}
