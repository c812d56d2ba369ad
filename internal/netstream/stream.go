// Package netstream implements the byte-stream abstraction consumed by
// the HTTP client task: RawStream unifies plain TCP and TLS-wrapped TCP
// behind a single read/write/peek interface (spec.md §3/§4.7), and
// ReconnectingStream drives connection attempts through a pluggable
// RetryDecider. TLS itself is an out-of-scope external collaborator per
// spec.md §1 — we consume the standard library's crypto/tls rather than
// reimplementing or depending on a third-party TLS stack.
package netstream

import (
	"bufio"
	"context"
	"crypto/tls"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"
)

// Stream is the "byte stream" external interface from spec.md §6: any
// read+write+peek type. RawStream realizes it.
type Stream interface {
	io.Reader
	io.Writer
	// Peek returns the next n bytes without consuming them. It may
	// return fewer than n bytes (with a nil error) only at EOF.
	Peek(n int) ([]byte, error)
	RemoteAddr() net.Addr
	SetDeadline(t time.Time) error
	Close() error
}

// Kind discriminates a RawStream's transport.
type Kind uint8

const (
	KindPlain Kind = iota
	KindTLS
)

// RawStream realizes spec.md's RawStream = AsPlain(tcp, addrs) |
// AsTls(buffered_tls, addrs). Peek is native for TCP (backed by a
// bufio.Reader the plain path always wraps its conn with, since net.Conn
// itself has no native peek) and via the same buffered reader for TLS.
type RawStream struct {
	kind  Kind
	conn  net.Conn
	addrs []net.Addr
	buf   *bufio.Reader
}

// NewPlain wraps an established plain TCP (or any net.Conn) connection.
func NewPlain(conn net.Conn, addrs []net.Addr) *RawStream {
	return &RawStream{kind: KindPlain, conn: conn, addrs: addrs, buf: bufio.NewReader(conn)}
}

// NewTLS wraps an established TLS connection.
func NewTLS(conn *tls.Conn, addrs []net.Addr) *RawStream {
	return &RawStream{kind: KindTLS, conn: conn, addrs: addrs, buf: bufio.NewReader(conn)}
}

// Kind reports which transport this stream uses.
func (s *RawStream) Kind() Kind { return s.kind }

// Read implements io.Reader via the buffered reader, so bytes peeked but
// not yet consumed are returned before new bytes are pulled off the wire.
func (s *RawStream) Read(p []byte) (int, error) { return s.buf.Read(p) }

// Write implements io.Writer, writing directly to the underlying conn.
func (s *RawStream) Write(p []byte) (int, error) { return s.conn.Write(p) }

// Peek returns the next n bytes without consuming them.
func (s *RawStream) Peek(n int) ([]byte, error) {
	b, err := s.buf.Peek(n)
	if err != nil && err != io.EOF {
		return b, errors.Wrap(err, "netstream: peek")
	}
	return b, nil
}

// RemoteAddr returns the underlying connection's remote address.
func (s *RawStream) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }

// SetDeadline forwards to the underlying connection.
func (s *RawStream) SetDeadline(t time.Time) error { return s.conn.SetDeadline(t) }

// Close closes the underlying connection.
func (s *RawStream) Close() error { return s.conn.Close() }

// Addrs returns the resolved addresses this stream was (re)connected
// through, most-recently-used last.
func (s *RawStream) Addrs() []net.Addr { return s.addrs }

// UpgradeToTLS performs a TLS client handshake over the plain connection
// this RawStream already wraps, using sni as the ServerName. It consumes
// whatever bytes were already buffered (there should be none, since TLS
// upgrade must happen before any HTTP bytes are exchanged) and replaces
// the stream's transport in place.
func (s *RawStream) UpgradeToTLS(ctx context.Context, sni string, cfg *tls.Config) error {
	if s.kind == KindTLS {
		return nil
	}
	conf := cfg
	if conf == nil {
		conf = &tls.Config{ServerName: sni, MinVersion: tls.VersionTLS12}
	} else if conf.ServerName == "" {
		c := conf.Clone()
		c.ServerName = sni
		conf = c
	}
	tlsConn := tls.Client(s.conn, conf)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return errors.Wrap(err, "netstream: tls handshake")
	}
	s.conn = tlsConn
	s.kind = KindTLS
	s.buf = bufio.NewReader(tlsConn)
	return nil
}
