package httpclient

import (
	"time"

	"github.com/guti-foundation/stationkit/internal/httpwire"
)

// Timeouts carries the three per-phase durations client/task.rs calls
// RequestTimings: spec.md names only a single opaque "timeouts" field on
// PreparedRequest, so we supplement it with the concrete phases the
// original implementation tracked. Connect bounds each dial. IntroRead,
// when set, becomes the connection deadline before the request is
// written, and that deadline stays in force for the body read too.
// BodyRead is carried but not applied by the client.
type Timeouts struct {
	Connect   time.Duration
	IntroRead time.Duration
	BodyRead  time.Duration
}

// PreparedRequest is the httpclient.GetHttpRequestRedirectTask input of
// spec.md §4.10.
type PreparedRequest struct {
	URL          httpwire.SimpleUrl
	Method       string
	Headers      httpwire.SimpleHeaders
	Body         httpwire.SimpleBody
	Timeouts     Timeouts
	MaxRedirects int
}

// toRequest converts a PreparedRequest into the wire-level request the
// codec renders, filling in the default headers the client always
// injects when absent.
func (p PreparedRequest) toRequest() httpwire.SimpleIncomingRequest {
	req := httpwire.SimpleIncomingRequest{
		Method:  p.Method,
		URL:     p.URL,
		Proto:   httpwire.HTTP11,
		Headers: p.Headers,
		Body:    p.Body,
	}
	req.Headers = httpwire.DefaultHeaders(req)
	return req
}

// redirected builds the next hop's PreparedRequest per spec.md §4.10's
// redirect policy: 307/308 preserve method and body; 301/302/303 convert
// to GET and drop the body, matching common browser practice.
func (p PreparedRequest) redirected(location httpwire.SimpleUrl, status httpwire.Status) PreparedRequest {
	next := p
	next.URL = location
	next.MaxRedirects = p.MaxRedirects - 1
	switch status.Code {
	case 307, 308:
		// method and body preserved.
	default: // 301, 302, 303
		next.Method = "GET"
		next.Body = httpwire.NoBody
	}
	return next
}
