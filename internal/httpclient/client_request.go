package httpclient

import (
	"context"
	"strings"

	"github.com/guti-foundation/stationkit/internal/connpool"
	"github.com/guti-foundation/stationkit/internal/entrylist"
	"github.com/guti-foundation/stationkit/internal/exec"
	"github.com/guti-foundation/stationkit/internal/httpwire"
	"github.com/guti-foundation/stationkit/internal/netstream"
)

type facadeState uint8

const (
	stateNotStarted facadeState = iota
	stateExecuting
	stateIntroReady
	stateCompleted
)

// SimpleResponse is the client's assembled response, per spec.md §6:
// exactly one Intro, one Headers, and one body variant.
type SimpleResponse struct {
	Status  httpwire.Status
	Headers httpwire.SimpleHeaders
	Body    httpwire.SimpleBody
}

// ClientRequest is the user-facing façade of spec.md §4.10:
// introduction/body/send/parts/collect, with linear state transitions
// NotStarted -> Executing -> IntroReady -> Completed.
type ClientRequest struct {
	ex      *exec.Executor
	pool    *connpool.Pool
	dialer  netstream.Dialer
	req     PreparedRequest

	state facadeState
	task  *sendRequestTask
	entry entrylist.Entry

	outcome         RedirectOutcome
	err             error
	bodyWasStreamed bool
}

// NewClientRequest builds a façade that will send req once driven. ex is
// the executor the redirect task runs under; pool and dialer may be nil
// (no pooling / default dialer respectively).
func NewClientRequest(ex *exec.Executor, pool *connpool.Pool, dialer netstream.Dialer, req PreparedRequest) *ClientRequest {
	return &ClientRequest{ex: ex, pool: pool, dialer: dialer, req: req}
}

// Introduction drives the task until the intro and headers have arrived,
// storing the remaining reader for Body. Calling it again before Body
// returns the same result; once Body has run, or the request has failed,
// it returns ErrInvalidReadState.
func (c *ClientRequest) Introduction(ctx context.Context) (httpwire.Status, httpwire.SimpleHeaders, error) {
	if c.state == stateCompleted {
		return httpwire.Status{}, httpwire.SimpleHeaders{}, ErrInvalidReadState
	}
	if c.state == stateNotStarted {
		c.task = newSendRequestTask(c.dialer, c.pool, c.req)
		entry, err := c.ex.Schedule(c.task)
		if err != nil {
			c.err = err
			c.state = stateCompleted
			return httpwire.Status{}, httpwire.SimpleHeaders{}, err
		}
		c.entry = entry
		c.state = stateExecuting
	}
	if c.state == stateExecuting {
		for !c.task.finished() {
			c.ex.RunOnce(ctx)
			if ctx.Err() != nil {
				return httpwire.Status{}, httpwire.SimpleHeaders{}, ctx.Err()
			}
		}
		c.outcome, c.err = c.task.result()
		if c.err != nil {
			c.state = stateCompleted
			return httpwire.Status{}, httpwire.SimpleHeaders{}, c.err
		}
		c.state = stateIntroReady
	}
	return c.outcome.Intro.Status, c.outcome.Headers.Headers, nil
}

// Body consumes the remaining reader, returning a single SimpleBody
// variant. Introduction is started first if it hasn't run yet.
func (c *ClientRequest) Body(ctx context.Context) (httpwire.SimpleBody, error) {
	if c.state == stateNotStarted || c.state == stateExecuting {
		if _, _, err := c.Introduction(ctx); err != nil {
			return httpwire.SimpleBody{}, err
		}
	}
	if c.state != stateIntroReady {
		return httpwire.SimpleBody{}, ErrInvalidReadState
	}

	part, err, _ := c.outcome.Reader.Next()
	c.state = stateCompleted
	if err != nil {
		c.returnToPool()
		return httpwire.SimpleBody{}, &ReaderError{Cause: err}
	}
	c.bodyWasStreamed = part.Kind == httpwire.PartsStreamedBody
	c.returnToPool()

	switch part.Kind {
	case httpwire.PartsNoBody:
		return httpwire.NoBody, nil
	case httpwire.PartsSizedBody:
		return httpwire.BytesBody(part.Body), nil
	case httpwire.PartsStreamedBody:
		return httpwire.StreamBody(part.Stream), nil
	default:
		return httpwire.NoBody, nil
	}
}

// Send drives Introduction then Body and assembles a SimpleResponse.
func (c *ClientRequest) Send(ctx context.Context) (SimpleResponse, error) {
	status, headers, err := c.Introduction(ctx)
	if err != nil {
		return SimpleResponse{}, err
	}
	body, err := c.Body(ctx)
	if err != nil {
		return SimpleResponse{}, err
	}
	return SimpleResponse{Status: status, Headers: headers, Body: body}, nil
}

// Parts yields Intro, Headers, and one body part in order.
func (c *ClientRequest) Parts(ctx context.Context) ([]httpwire.IncomingResponseParts, error) {
	if _, _, err := c.Introduction(ctx); err != nil {
		return nil, err
	}
	body, err := c.Body(ctx)
	if err != nil {
		return nil, err
	}

	parts := []httpwire.IncomingResponseParts{
		c.outcome.Intro,
		c.outcome.Headers,
	}
	switch body.Kind {
	case httpwire.BodyNone:
		parts = append(parts, httpwire.IncomingResponseParts{Kind: httpwire.PartsNoBody})
	case httpwire.BodyBytes:
		parts = append(parts, httpwire.IncomingResponseParts{Kind: httpwire.PartsSizedBody, Body: body.Bytes})
	case httpwire.BodyStream:
		parts = append(parts, httpwire.IncomingResponseParts{Kind: httpwire.PartsStreamedBody, Stream: body.Stream})
	}
	return parts, nil
}

// Collect is Parts().
func (c *ClientRequest) Collect(ctx context.Context) ([]httpwire.IncomingResponseParts, error) {
	return c.Parts(ctx)
}

// returnToPool returns the connection to the pool on terminal body
// consumption, unless Connection: close was present or the body was read
// as stream-to-close (spec.md §4.10's drop-handler rule).
func (c *ClientRequest) returnToPool() {
	if c.pool == nil || c.outcome.Stream == nil {
		return
	}
	if v, ok := c.outcome.Headers.Headers.Get("Connection"); ok && strings.EqualFold(v, "close") {
		_ = c.outcome.Stream.Close()
		return
	}
	if c.bodyWasStreamed {
		_ = c.outcome.Stream.Close()
		return
	}
	c.pool.Checkin(c.outcome.Pooled, c.outcome.Stream)
}
