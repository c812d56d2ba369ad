package httpwire

import "github.com/pkg/errors"

// Reader error kinds, per spec.md §4.8/§7.
var (
	ErrInvalidIntroLine = errors.New("httpwire: invalid status line")
	ErrInvalidHeader    = errors.New("httpwire: invalid header line")
	ErrInvalidChunkSize = errors.New("httpwire: invalid chunk size")
	ErrUnexpectedEOF    = errors.New("httpwire: unexpected end of stream")
	ErrReadFailed       = errors.New("httpwire: read failed")
)
