package httpwire

import "strings"

type header struct {
	name  string // as supplied by the caller
	value string
}

// SimpleHeaders is an ordered, case-insensitive header multimap. Order is
// preserved for rendering; lookups are case-insensitive per RFC 7230.
type SimpleHeaders struct {
	entries []header
}

// NewHeaders builds an empty SimpleHeaders.
func NewHeaders() SimpleHeaders { return SimpleHeaders{} }

// Set replaces all existing values for name with a single value.
func (h *SimpleHeaders) Set(name, value string) {
	h.Del(name)
	h.entries = append(h.entries, header{name: name, value: value})
}

// Add appends a value for name without removing existing ones.
func (h *SimpleHeaders) Add(name, value string) {
	h.entries = append(h.entries, header{name: name, value: value})
}

// Get returns the first value for name, case-insensitively.
func (h SimpleHeaders) Get(name string) (string, bool) {
	for _, e := range h.entries {
		if strings.EqualFold(e.name, name) {
			return e.value, true
		}
	}
	return "", false
}

// Del removes every entry matching name, case-insensitively.
func (h *SimpleHeaders) Del(name string) {
	out := h.entries[:0]
	for _, e := range h.entries {
		if !strings.EqualFold(e.name, name) {
			out = append(out, e)
		}
	}
	h.entries = out
}

// Has reports whether name is present, case-insensitively.
func (h SimpleHeaders) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Len reports the number of header entries.
func (h SimpleHeaders) Len() int { return len(h.entries) }

// Each calls fn for every (name, value) pair in wire order.
func (h SimpleHeaders) Each(fn func(name, value string)) {
	for _, e := range h.entries {
		fn(e.name, e.value)
	}
}

// renderLine renders a single header in wire form: the name upper-cased
// per spec.md §6 ("rendered uppercase on the wire"), the value untouched.
func (e header) renderLine() string {
	return strings.ToUpper(e.name) + ": " + e.value + "\r\n"
}
