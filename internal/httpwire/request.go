package httpwire

import (
	"io"
	"strconv"

	"github.com/guti-foundation/stationkit/internal/util"
)

// SimpleIncomingRequest is the render input / server-side parse output:
// a fully-materialized HTTP request.
type SimpleIncomingRequest struct {
	Method  string
	URL     SimpleUrl
	Proto   Proto
	Headers SimpleHeaders
	Body    SimpleBody
}

// RequestChunkIter is the lazy byte-chunk iterator Render produces, per
// spec.md §4.8: the intro line and headers are rendered eagerly into one
// chunk (they're always small), the body streams lazily so a BodyStream
// payload never has to be buffered whole.
type RequestChunkIter struct {
	head []byte
	body io.Reader
	buf  []byte
}

// RenderRequest builds the lazy chunk iterator for req.
func RenderRequest(req SimpleIncomingRequest) *RequestChunkIter {
	headers := req.Headers
	if n, ok := req.Body.Len(); ok && !headers.Has("Content-Length") {
		headers.Set("Content-Length", strconv.Itoa(n))
	}

	var head []byte
	head = append(head, req.Method...)
	head = append(head, ' ')
	head = append(head, req.URL.RequestTarget()...)
	head = append(head, ' ')
	head = append(head, req.Proto.String()...)
	head = append(head, '\r', '\n')
	headers.Each(func(name, value string) {
		head = append(head, header{name: name, value: value}.renderLine()...)
	})
	head = append(head, '\r', '\n')

	return &RequestChunkIter{head: head, body: req.Body.chunkReader(), buf: make([]byte, 4096)}
}

// Next returns the next wire chunk, or ok == false once fully drained.
func (it *RequestChunkIter) Next() (chunk []byte, ok bool) {
	if it.head != nil {
		h := it.head
		it.head = nil
		return h, true
	}
	if it.body == nil {
		return nil, false
	}
	n, err := it.body.Read(it.buf)
	if n > 0 {
		out := make([]byte, n)
		copy(out, it.buf[:n])
		if err != nil {
			it.body = nil
		}
		return out, true
	}
	it.body = nil
	return nil, false
}

// Collect drains the iterator into a single buffer. Intended for small
// requests and tests; large streamed bodies should drive Next directly.
func (it *RequestChunkIter) Collect() []byte {
	var out []byte
	for {
		chunk, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, chunk...)
	}
}

// DefaultHeaders fills in the handful of headers client/actions.rs
// special-cases for default injection when the caller didn't supply
// them: Host (from the target URL), User-Agent, Content-Type for
// Bytes/Text bodies, and an X-Request-Id for cross-log correlation.
func DefaultHeaders(req SimpleIncomingRequest) SimpleHeaders {
	headers := req.Headers
	if !headers.Has("Host") {
		headers.Set("Host", req.URL.Host)
	}
	if !headers.Has("User-Agent") {
		headers.Set("User-Agent", "stationkit/1")
	}
	if (req.Body.Kind == BodyBytes || req.Body.Kind == BodyText) && !headers.Has("Content-Type") {
		headers.Set("Content-Type", "application/octet-stream")
	}
	if !headers.Has("X-Request-Id") {
		headers.Set("X-Request-Id", util.NewReqID())
	}
	return headers
}

// SimpleOutgoingResponse is the render input for the server-rendering
// path this codec also supports, carried forward from the teacher's
// response.go write().
type SimpleOutgoingResponse struct {
	Status  Status
	Proto   Proto
	Headers SimpleHeaders
	Body    SimpleBody
}

// RenderResponse builds the lazy chunk iterator for an outgoing response.
func RenderResponse(resp SimpleOutgoingResponse) *RequestChunkIter {
	headers := resp.Headers
	if n, ok := resp.Body.Len(); ok && !headers.Has("Content-Length") {
		headers.Set("Content-Length", strconv.Itoa(n))
	}

	var head []byte
	head = append(head, resp.Proto.String()...)
	head = append(head, ' ')
	head = append(head, strconv.Itoa(resp.Status.Code)...)
	head = append(head, ' ')
	head = append(head, resp.Status.Reason...)
	head = append(head, '\r', '\n')
	headers.Each(func(name, value string) {
		head = append(head, header{name: name, value: value}.renderLine()...)
	})
	head = append(head, '\r', '\n')

	return &RequestChunkIter{head: head, body: resp.Body.chunkReader(), buf: make([]byte, 4096)}
}
