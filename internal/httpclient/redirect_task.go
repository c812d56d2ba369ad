package httpclient

import (
	"bufio"
	"context"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/guti-foundation/stationkit/internal/connpool"
	"github.com/guti-foundation/stationkit/internal/exec"
	"github.com/guti-foundation/stationkit/internal/httpwire"
	"github.com/guti-foundation/stationkit/internal/netstream"
	"github.com/guti-foundation/stationkit/internal/task"
)

// RedirectOutcome is what GetHttpRequestRedirectTask yields: the
// connection plus the already-read intro and headers, "so the outer task
// need not re-read" (spec.md §4.10).
type RedirectOutcome struct {
	Stream  *netstream.RawStream
	Reader  *httpwire.HttpResponseReader
	Intro   httpwire.IncomingResponseParts
	Headers httpwire.IncomingResponseParts
	Pooled  connpool.Key
	HeadReq bool
	Err     error
}

// redirectTask implements task.Iterator, one poll per redirect hop, per
// spec.md §4.10's "Acquire -> render/write/flush -> read intro+headers ->
// loop or Done" redirect loop. A single Next() call does one full hop's
// blocking I/O; this package does not decompose socket I/O into
// non-blocking steps (see DESIGN.md), so suspension between hops is the
// only place this task actually yields.
type redirectTask struct {
	ctx     context.Context
	dialer  netstream.Dialer
	pool    *connpool.Pool
	current PreparedRequest
	done    bool
}

// newRedirectTask constructs the task.Iterator driving one client
// request's redirect chain.
func newRedirectTask(ctx context.Context, dialer netstream.Dialer, pool *connpool.Pool, req PreparedRequest) task.Iterator[RedirectOutcome, struct{}, exec.SpawnAction] {
	return &redirectTask{ctx: ctx, dialer: dialer, pool: pool, current: req}
}

// Next performs one redirect hop.
func (t *redirectTask) Next() (task.Status[RedirectOutcome, struct{}, exec.SpawnAction], bool) {
	if t.done {
		return task.Status[RedirectOutcome, struct{}, exec.SpawnAction]{}, false
	}

	outcome := t.hop()
	if outcome.Err != nil {
		t.done = true
		return task.ReadyValue[RedirectOutcome, struct{}, exec.SpawnAction](outcome), true
	}
	if outcome.Intro.Status.IsRedirect() {
		if loc, ok := outcome.Headers.Headers.Get("Location"); ok && t.current.MaxRedirects > 0 {
			next, err := resolveLocation(t.current.URL, loc)
			if err == nil {
				t.current = t.current.redirected(next, outcome.Intro.Status)
				return task.PendingValue[RedirectOutcome, struct{}, exec.SpawnAction](struct{}{}), true
			}
		}
	}
	t.done = true
	return task.ReadyValue[RedirectOutcome, struct{}, exec.SpawnAction](outcome), true
}

func (t *redirectTask) hop() RedirectOutcome {
	key := connpool.Key{Host: t.current.URL.Host, Port: t.current.URL.DefaultPort(), Scheme: t.current.URL.Scheme}
	headReq := t.current.Method == "HEAD"

	stream, _ := t.acquire(key)
	if stream == nil {
		return RedirectOutcome{Err: errors.Wrap(ErrFailedExecution, "dial failed")}
	}

	if t.current.URL.IsTLS() && stream.Kind() != netstream.KindTLS {
		if err := stream.UpgradeToTLS(t.ctx, t.current.URL.Host, nil); err != nil {
			_ = stream.Close()
			return RedirectOutcome{Err: errors.Wrap(err, "tls upgrade failed")}
		}
	}

	if t.current.Timeouts.IntroRead > 0 {
		_ = stream.SetDeadline(time.Now().Add(t.current.Timeouts.IntroRead))
	}

	chunks := httpwire.RenderRequest(t.current.toRequest())
	for {
		chunk, ok := chunks.Next()
		if !ok {
			break
		}
		if _, err := stream.Write(chunk); err != nil {
			_ = stream.Close()
			return RedirectOutcome{Err: errors.Wrap(err, "write failed")}
		}
	}

	reader := httpwire.NewHttpResponseReader(bufio.NewReader(stream), headReq)
	intro, err, _ := reader.Next()
	if err != nil {
		_ = stream.Close()
		return RedirectOutcome{Err: errors.Wrap(err, "read intro failed")}
	}
	headers, err, _ := reader.Next()
	if err != nil {
		_ = stream.Close()
		return RedirectOutcome{Err: errors.Wrap(err, "read headers failed")}
	}

	return RedirectOutcome{Stream: stream, Reader: reader, Intro: intro, Headers: headers, Pooled: key, HeadReq: headReq}
}

func (t *redirectTask) acquire(key connpool.Key) (*netstream.RawStream, bool) {
	if t.pool != nil {
		if s, ok := t.pool.Checkout(key); ok {
			return s, true
		}
	}
	dialer := t.dialer
	if dialer == nil {
		dialer = netstream.DefaultDialer
	}
	ctx := t.ctx
	var cancel context.CancelFunc
	if t.current.Timeouts.Connect > 0 {
		ctx, cancel = context.WithTimeout(ctx, t.current.Timeouts.Connect)
		defer cancel()
	}
	conn, err := dialer.DialContext(ctx, "tcp", key.Host+":"+strconv.Itoa(key.Port))
	if err != nil {
		return nil, false
	}
	return netstream.NewPlain(conn, []net.Addr{conn.RemoteAddr()}), false
}

// resolveLocation resolves a Location header (absolute or relative)
// against the current request URL.
func resolveLocation(current httpwire.SimpleUrl, location string) (httpwire.SimpleUrl, error) {
	base := &url.URL{Scheme: current.Scheme, Host: current.HostPort(), Path: current.Path, RawQuery: current.Query}
	ref, err := url.Parse(location)
	if err != nil {
		return httpwire.SimpleUrl{}, err
	}
	resolved := base.ResolveReference(ref)

	host := resolved.Hostname()
	port := 0
	if p := resolved.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return httpwire.SimpleUrl{}, err
		}
	}
	return httpwire.SimpleUrl{
		Scheme: resolved.Scheme,
		Host:   host,
		Port:   port,
		Path:   resolved.Path,
		Query:  resolved.RawQuery,
	}, nil
}
