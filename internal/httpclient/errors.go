package httpclient

import "github.com/pkg/errors"

// Client error kinds, per spec.md §7.
var (
	ErrNoRequestToSend  = errors.New("httpclient: no request to send")
	ErrInvalidReqState  = errors.New("httpclient: invalid request state")
	ErrInvalidReadState = errors.New("httpclient: invalid read state")
	ErrFailedExecution  = errors.New("httpclient: failed execution")
	ErrFailedToReadBody = errors.New("httpclient: failed to read body")
)

// ReaderError wraps an underlying httpwire reader error so callers see
// a ReaderError(inner) kind distinct from the other client error kinds.
type ReaderError struct{ Cause error }

func (e *ReaderError) Error() string { return "httpclient: reader error: " + e.Cause.Error() }
func (e *ReaderError) Unwrap() error { return e.Cause }
