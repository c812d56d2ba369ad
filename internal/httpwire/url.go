package httpwire

import "strconv"

// SimpleUrl is the minimal URL shape the wire codec and client need —
// scheme/host/port plus the request-target path and query, kept apart so
// the redirect loop can rewrite one field without reparsing a full URL.
type SimpleUrl struct {
	Scheme string
	Host   string
	Port   int
	Path   string
	Query  string
}

// IsTLS reports whether this URL implies a TLS connection.
func (u SimpleUrl) IsTLS() bool { return u.Scheme == "https" }

// DefaultPort fills Port from Scheme when the caller left it at zero.
func (u SimpleUrl) DefaultPort() int {
	if u.Port != 0 {
		return u.Port
	}
	if u.IsTLS() {
		return 443
	}
	return 80
}

// HostPort renders "host:port" for dialing.
func (u SimpleUrl) HostPort() string {
	return u.Host + ":" + strconv.Itoa(u.DefaultPort())
}

// RequestTarget renders "path?query" for the request line.
func (u SimpleUrl) RequestTarget() string {
	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.Query == "" {
		return path
	}
	return path + "?" + u.Query
}

// Proto identifies the HTTP version on the wire.
type Proto struct {
	kind   protoKind
	custom string
}

type protoKind uint8

const (
	protoHTTP10 protoKind = iota
	protoHTTP11
	protoCustom
)

// HTTP10 and HTTP11 are the two versions the codec natively understands;
// Custom carries anything else encountered on the wire verbatim.
var (
	HTTP10 = Proto{kind: protoHTTP10}
	HTTP11 = Proto{kind: protoHTTP11}
)

// CustomProto wraps a verbatim "HTTP/x.y" token this codec doesn't parse
// further, so an unrecognized version doesn't have to be an error.
func CustomProto(raw string) Proto { return Proto{kind: protoCustom, custom: raw} }

// String renders the wire token for the intro line.
func (p Proto) String() string {
	switch p.kind {
	case protoHTTP10:
		return "HTTP/1.0"
	case protoHTTP11:
		return "HTTP/1.1"
	default:
		return p.custom
	}
}

// ParseProto recognizes HTTP/1.0 and HTTP/1.1; anything else becomes Custom.
func ParseProto(raw string) Proto {
	switch raw {
	case "HTTP/1.0":
		return HTTP10
	case "HTTP/1.1":
		return HTTP11
	default:
		return CustomProto(raw)
	}
}

// Status is a response status line's code and reason phrase.
type Status struct {
	Code   int
	Reason string
}

// ImpliesNoBody reports the status codes spec.md §4.8 calls out as never
// carrying a body: 1xx, 204, 304.
func (s Status) ImpliesNoBody() bool {
	return (s.Code >= 100 && s.Code < 200) || s.Code == 204 || s.Code == 304
}

// IsRedirect reports whether this is a 3xx status.
func (s Status) IsRedirect() bool { return s.Code >= 300 && s.Code < 400 }

// statusText mirrors the teacher's response.go lookup, extended with the
// codes the client needs: 1xx, 204, 304, and the 3xx redirects.
func statusText(code int) string {
	switch code {
	case 100:
		return "Continue"
	case 101:
		return "Switching Protocols"
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 303:
		return "See Other"
	case 304:
		return "Not Modified"
	case 307:
		return "Temporary Redirect"
	case 308:
		return "Permanent Redirect"
	case 400:
		return "Bad Request"
	case 404:
		return "Not Found"
	case 409:
		return "Conflict"
	case 429:
		return "Too Many Requests"
	case 500:
		return "Internal Server Error"
	case 503:
		return "Service Unavailable"
	default:
		return "OK"
	}
}

// NewStatus builds a Status, filling Reason from the built-in table when
// the caller doesn't supply one.
func NewStatus(code int, reason string) Status {
	if reason == "" {
		reason = statusText(code)
	}
	return Status{Code: code, Reason: reason}
}
