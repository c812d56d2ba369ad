package httpwire

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// PartsKind discriminates an IncomingResponseParts value.
type PartsKind uint8

const (
	PartsIntro PartsKind = iota
	PartsHeaders
	PartsNoBody
	PartsSizedBody
	PartsStreamedBody
)

// IncomingResponseParts is one yield from HttpResponseReader.Next.
type IncomingResponseParts struct {
	Kind    PartsKind
	Status  Status
	Proto   Proto
	Headers SimpleHeaders
	Body    []byte    // PartsSizedBody
	Stream  io.Reader // PartsStreamedBody
}

type readerState uint8

const (
	stateExpectIntro readerState = iota
	stateExpectHeaders
	stateExpectBody
	stateDone
)

// HttpResponseReader is the response-side state machine of spec.md §4.8:
// ExpectIntro -> ExpectHeaders -> ExpectBody -> terminal.
type HttpResponseReader struct {
	r        *bufio.Reader
	state    readerState
	headRequest bool

	status  Status
	proto   Proto
	headers SimpleHeaders
}

// NewHttpResponseReader wraps r. headRequest must be true when the
// request this response answers used the HEAD method: a HEAD response
// with neither Transfer-Encoding: chunked nor Content-Length is then
// read as NoBody instead of read until close. A Content-Length header is
// still honored (its bytes are read) even when headRequest is true.
func NewHttpResponseReader(r *bufio.Reader, headRequest bool) *HttpResponseReader {
	return &HttpResponseReader{r: r, headRequest: headRequest}
}

// Next advances the state machine by one step. more == false once the
// reader has yielded its terminal body part (or failed).
func (rr *HttpResponseReader) Next() (IncomingResponseParts, error, bool) {
	switch rr.state {
	case stateExpectIntro:
		return rr.readIntro()
	case stateExpectHeaders:
		return rr.readHeaders()
	case stateExpectBody:
		return rr.readBody()
	default:
		return IncomingResponseParts{}, nil, false
	}
}

func (rr *HttpResponseReader) readIntro() (IncomingResponseParts, error, bool) {
	line, err := readCRLFLine(rr.r)
	if err != nil {
		return IncomingResponseParts{}, wrapReadErr(err), false
	}
	fields := strings.SplitN(line, " ", 3)
	if len(fields) != 3 {
		return IncomingResponseParts{}, ErrInvalidIntroLine, false
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return IncomingResponseParts{}, errors.Wrap(ErrInvalidIntroLine, "status code"), false
	}
	rr.proto = ParseProto(fields[0])
	rr.status = NewStatus(code, fields[2])
	rr.state = stateExpectHeaders
	return IncomingResponseParts{Kind: PartsIntro, Status: rr.status, Proto: rr.proto}, nil, true
}

func (rr *HttpResponseReader) readHeaders() (IncomingResponseParts, error, bool) {
	headers := NewHeaders()
	for {
		line, err := readCRLFLine(rr.r)
		if err != nil {
			return IncomingResponseParts{}, wrapReadErr(err), false
		}
		if line == "" {
			break
		}
		kv := strings.SplitN(line, ":", 2)
		if len(kv) != 2 {
			return IncomingResponseParts{}, ErrInvalidHeader, false
		}
		headers.Add(strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1]))
	}
	rr.headers = headers
	rr.state = stateExpectBody
	return IncomingResponseParts{Kind: PartsHeaders, Headers: headers}, nil, true
}

func (rr *HttpResponseReader) readBody() (IncomingResponseParts, error, bool) {
	rr.state = stateDone

	if te, ok := rr.headers.Get("Transfer-Encoding"); ok && strings.EqualFold(strings.TrimSpace(te), "chunked") {
		return IncomingResponseParts{Kind: PartsStreamedBody, Stream: newChunkedReader(rr.r)}, nil, true
	}
	if cl, ok := rr.headers.Get("Content-Length"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(cl))
		if err != nil || n < 0 {
			return IncomingResponseParts{}, errors.Wrap(ErrInvalidHeader, "content-length"), false
		}
		if n == 0 {
			return IncomingResponseParts{Kind: PartsNoBody}, nil, true
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(rr.r, buf); err != nil {
			return IncomingResponseParts{}, wrapReadErr(err), false
		}
		return IncomingResponseParts{Kind: PartsSizedBody, Body: buf}, nil, true
	}
	if rr.headRequest || rr.status.ImpliesNoBody() {
		return IncomingResponseParts{Kind: PartsNoBody}, nil, true
	}
	return IncomingResponseParts{Kind: PartsStreamedBody, Stream: rr.r}, nil, true
}

// readCRLFLine reads one line, requiring a CRLF terminator, and returns
// it with the terminator stripped.
func readCRLFLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(line, "\r\n") {
		return "", ErrInvalidIntroLine
	}
	return strings.TrimSuffix(line, "\r\n"), nil
}

func wrapReadErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.Wrap(ErrUnexpectedEOF, err.Error())
	}
	if err == ErrInvalidIntroLine || err == ErrInvalidHeader {
		return err
	}
	return errors.Wrap(ErrReadFailed, err.Error())
}

// chunkedReader decodes HTTP chunked transfer-coding lazily: hex chunk
// size CRLF, data, CRLF, repeated, terminated by a zero-size chunk and a
// blank trailer section. No chunk extensions or trailer headers are
// exposed, per spec.md §6 ("no extensions supported").
type chunkedReader struct {
	r       *bufio.Reader
	remain  int
	done    bool
	pending error
}

func newChunkedReader(r *bufio.Reader) *chunkedReader { return &chunkedReader{r: r} }

func (c *chunkedReader) Read(p []byte) (int, error) {
	if c.pending != nil {
		return 0, c.pending
	}
	if c.done {
		return 0, io.EOF
	}
	if c.remain == 0 {
		if err := c.nextChunkSize(); err != nil {
			c.pending = err
			return 0, err
		}
		if c.done {
			return 0, io.EOF
		}
	}
	if len(p) > c.remain {
		p = p[:c.remain]
	}
	n, err := c.r.Read(p)
	c.remain -= n
	if err != nil {
		c.pending = wrapReadErr(err)
		return n, c.pending
	}
	if c.remain == 0 {
		if _, err := readCRLFLine(c.r); err != nil {
			c.pending = wrapReadErr(err)
			return n, c.pending
		}
	}
	return n, nil
}

func (c *chunkedReader) nextChunkSize() error {
	line, err := readCRLFLine(c.r)
	if err != nil {
		return wrapReadErr(err)
	}
	if semi := strings.IndexByte(line, ';'); semi >= 0 {
		line = line[:semi]
	}
	size, err := strconv.ParseInt(strings.TrimSpace(line), 16, 64)
	if err != nil || size < 0 {
		return ErrInvalidChunkSize
	}
	if size == 0 {
		// trailer section: read until the blank line.
		for {
			l, err := readCRLFLine(c.r)
			if err != nil {
				return wrapReadErr(err)
			}
			if l == "" {
				break
			}
		}
		c.done = true
		return nil
	}
	c.remain = int(size)
	return nil
}
