package httpwire

import "io"

// BodyKind discriminates a SimpleBody's payload shape.
type BodyKind uint8

const (
	BodyNone BodyKind = iota
	BodyBytes
	BodyText
	BodyStream
)

// SimpleBody is a request or response payload. Exactly one field is
// meaningful, selected by Kind.
type SimpleBody struct {
	Kind   BodyKind
	Bytes  []byte
	Text   string
	Stream io.Reader
}

// NoBody is the empty request/response body.
var NoBody = SimpleBody{Kind: BodyNone}

// BytesBody wraps a raw byte payload.
func BytesBody(b []byte) SimpleBody { return SimpleBody{Kind: BodyBytes, Bytes: b} }

// TextBody wraps a string payload.
func TextBody(s string) SimpleBody { return SimpleBody{Kind: BodyText, Text: s} }

// StreamBody wraps an io.Reader payload whose length is not known ahead
// of time (chunked on the wire, or read until connection close).
func StreamBody(r io.Reader) SimpleBody { return SimpleBody{Kind: BodyStream, Stream: r} }

// Len reports the content length when known; ok is false for BodyNone and
// BodyStream, matching the render rule that only Bytes/Text bodies get an
// auto-injected Content-Length.
func (b SimpleBody) Len() (int, bool) {
	switch b.Kind {
	case BodyBytes:
		return len(b.Bytes), true
	case BodyText:
		return len(b.Text), true
	default:
		return 0, false
	}
}

// chunkReader is the actual []byte content a render emits for this body's
// payload portion (headers/intro are rendered separately).
func (b SimpleBody) chunkReader() io.Reader {
	switch b.Kind {
	case BodyBytes:
		return bytesReader(b.Bytes)
	case BodyText:
		return bytesReader([]byte(b.Text))
	case BodyStream:
		return b.Stream
	default:
		return nil
	}
}

func bytesReader(b []byte) io.Reader {
	if len(b) == 0 {
		return nil
	}
	return &sliceReader{b: b}
}

// sliceReader is a minimal io.Reader over a byte slice, used instead of
// bytes.Reader to avoid a Seek-capable type's extra surface. The render
// iterator copies what it reads into a fresh chunk.
type sliceReader struct{ b []byte }

func (s *sliceReader) Read(p []byte) (int, error) {
	if len(s.b) == 0 {
		return 0, io.EOF
	}
	n := copy(p, s.b)
	s.b = s.b[n:]
	return n, nil
}
