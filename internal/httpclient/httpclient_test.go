package httpclient_test

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guti-foundation/stationkit/internal/exec"
	"github.com/guti-foundation/stationkit/internal/httpclient"
	"github.com/guti-foundation/stationkit/internal/httpwire"
)

// serveOnce accepts exactly one connection on ln, reads the request line,
// and writes raw (already CRLF-terminated) response bytes.
func serveOnce(t *testing.T, ln net.Listener, response string) {
	t.Helper()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		for {
			line, err := r.ReadString('\n')
			if err != nil || line == "\r\n" {
				break
			}
		}
		_, _ = conn.Write([]byte(response))
	}()
}

func testURL(t *testing.T, ln net.Listener) httpwire.SimpleUrl {
	t.Helper()
	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port := 0
	for _, c := range portStr {
		port = port*10 + int(c-'0')
	}
	return httpwire.SimpleUrl{Scheme: "http", Host: host, Port: port, Path: "/"}
}

func newExecutor() *exec.Executor {
	engine := exec.NewEngine()
	return exec.NewExecutor(engine)
}

func TestClientRequestSendSizedBody(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	serveOnce(t, ln, "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello")

	ex := newExecutor()
	req := httpclient.PreparedRequest{URL: testURL(t, ln), Method: "GET", MaxRedirects: 3}
	cr := httpclient.NewClientRequest(ex, nil, nil, req)

	resp, err := cr.Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status.Code)
	assert.Equal(t, httpwire.BodyBytes, resp.Body.Kind)
	assert.Equal(t, "hello", string(resp.Body.Bytes))
}

func TestClientRequestFollowsRedirect(t *testing.T) {
	ln1, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln1.Close()
	ln2, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln2.Close()

	target := testURL(t, ln2)
	serveOnce(t, ln1, "HTTP/1.1 302 Found\r\nLocation: http://"+target.HostPort()+"/\r\nContent-Length: 0\r\n\r\n")
	serveOnce(t, ln2, "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok")

	ex := newExecutor()
	req := httpclient.PreparedRequest{URL: testURL(t, ln1), Method: "GET", MaxRedirects: 3}
	cr := httpclient.NewClientRequest(ex, nil, nil, req)

	resp, err := cr.Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status.Code)
	assert.Equal(t, "ok", string(resp.Body.Bytes))
}

func TestClientRequestChunkedBody(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	serveOnce(t, ln, "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n")

	ex := newExecutor()
	req := httpclient.PreparedRequest{URL: testURL(t, ln), Method: "GET", MaxRedirects: 3}
	cr := httpclient.NewClientRequest(ex, nil, nil, req)

	status, headers, err := cr.Introduction(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, status.Code)
	te, ok := headers.Get("Transfer-Encoding")
	require.True(t, ok)
	assert.Equal(t, "chunked", te)

	body, err := cr.Body(context.Background())
	require.NoError(t, err)
	require.Equal(t, httpwire.BodyStream, body.Kind)
	buf := make([]byte, 32)
	n, _ := body.Stream.Read(buf)
	assert.Equal(t, "hello", string(buf[:n]))
}

func TestClientRequestBodyBeforeIntroductionStartsIt(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	serveOnce(t, ln, "HTTP/1.1 204 No Content\r\n\r\n")

	ex := newExecutor()
	req := httpclient.PreparedRequest{URL: testURL(t, ln), Method: "GET", MaxRedirects: 1}
	cr := httpclient.NewClientRequest(ex, nil, nil, req)

	body, err := cr.Body(context.Background())
	require.NoError(t, err)
	assert.Equal(t, httpwire.BodyNone, body.Kind)

	_, err = cr.Body(context.Background())
	assert.ErrorIs(t, err, httpclient.ErrInvalidReadState)
}

func TestClientRequestConnectFailureReturnsError(t *testing.T) {
	ex := newExecutor()
	req := httpclient.PreparedRequest{
		URL:          httpwire.SimpleUrl{Scheme: "http", Host: "127.0.0.1", Port: 1},
		Method:       "GET",
		MaxRedirects: 1,
		Timeouts:     httpclient.Timeouts{Connect: 200 * time.Millisecond},
	}
	cr := httpclient.NewClientRequest(ex, nil, nil, req)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := cr.Send(ctx)
	require.Error(t, err)
}
