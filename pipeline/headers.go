package pipeline

import (
	"strings"
)

// Header is a single named header and its values.
type Header struct {
	// Name is the header name as first written by the caller.
	Name string

	// Values holds the header's values in insertion order.
	Values []string
}

// Value returns the header's values joined with ",". Multi-valued headers
// are transmitted as a single comma-joined field.
func (h *Header) Value() string {
	return strings.Join(h.Values, ",")
}

// Headers is an ordered multimap of HTTP headers keyed case-insensitively.
// The zero value is not usable; create with NewHeaders.
//
// Set replaces all values for a name (last write wins), Add appends an
// additional value. The name's spelling and position are those of the first
// write.
//
// Headers is not safe for concurrent use; an instance lives inside one call.
type Headers struct {
	order   []string           // lower-cased names in first-insertion order
	entries map[string]*Header // lower-cased name -> header
}

// NewHeaders creates an empty header collection.
func NewHeaders() *Headers {
	return &Headers{entries: make(map[string]*Header)}
}

// Set replaces all values for the given header name.
func (h *Headers) Set(name, value string) {
	key := strings.ToLower(name)
	if e, ok := h.entries[key]; ok {
		e.Values = e.Values[:0]
		e.Values = append(e.Values, value)
		return
	}
	h.entries[key] = &Header{Name: name, Values: []string{value}}
	h.order = append(h.order, key)
}

// Add appends a value for the given header name, preserving existing values.
func (h *Headers) Add(name, value string) {
	key := strings.ToLower(name)
	if e, ok := h.entries[key]; ok {
		e.Values = append(e.Values, value)
		return
	}
	h.entries[key] = &Header{Name: name, Values: []string{value}}
	h.order = append(h.order, key)
}

// Get returns the comma-joined value for the given name, or "" if the header
// is not present.
func (h *Headers) Get(name string) string {
	if e, ok := h.entries[strings.ToLower(name)]; ok {
		return e.Value()
	}
	return ""
}

// Has reports whether a header with the given name is present.
func (h *Headers) Has(name string) bool {
	_, ok := h.entries[strings.ToLower(name)]
	return ok
}

// Values returns a copy of all values for the given name.
func (h *Headers) Values(name string) []string {
	if e, ok := h.entries[strings.ToLower(name)]; ok {
		return append([]string(nil), e.Values...)
	}
	return nil
}

// Del removes the header with the given name.
func (h *Headers) Del(name string) {
	key := strings.ToLower(name)
	if _, ok := h.entries[key]; !ok {
		return
	}
	delete(h.entries, key)
	for i, k := range h.order {
		if k == key {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of distinct header names.
func (h *Headers) Len() int {
	return len(h.order)
}

// All returns the headers in insertion order.
func (h *Headers) All() []*Header {
	out := make([]*Header, 0, len(h.order))
	for _, key := range h.order {
		out = append(out, h.entries[key])
	}
	return out
}

// Map returns the headers as a name to comma-joined-value map, using the
// first-written spelling of each name.
func (h *Headers) Map() map[string]string {
	out := make(map[string]string, len(h.order))
	for _, key := range h.order {
		e := h.entries[key]
		out[e.Name] = e.Value()
	}
	return out
}

// Clone returns a deep copy.
func (h *Headers) Clone() *Headers {
	out := NewHeaders()
	for _, key := range h.order {
		e := h.entries[key]
		out.entries[key] = &Header{Name: e.Name, Values: append([]string(nil), e.Values...)}
		out.order = append(out.order, key)
	}
	return out
}
