package pipeline

import (
	"bytes"
	"io"
)

// Request is one outbound HTTP request. It is mutable until handed to the
// transport; policies that need to retain a request across attempts should
// Clone it.
type Request struct {
	// Method is the HTTP verb (GET, POST, PUT, PATCH, DELETE, HEAD, OPTIONS).
	Method string

	// URL is the absolute request URL.
	URL string

	// Headers holds the request headers.
	Headers *Headers

	body      io.ReadCloser
	bodyBytes []byte
	hasBytes  bool
}

// NewRequest creates a request with empty headers and no body.
func NewRequest(method, url string) *Request {
	return &Request{
		Method:  method,
		URL:     url,
		Headers: NewHeaders(),
	}
}

// SetBody attaches a byte-slice body. The body is replayable across retries.
func (r *Request) SetBody(b []byte) {
	r.bodyBytes = b
	r.hasBytes = true
	r.body = nil
}

// SetBodyString attaches a text body. The body is replayable across retries.
func (r *Request) SetBodyString(s string) {
	r.SetBody([]byte(s))
}

// SetBodyStream attaches a caller-owned chunk stream. Stream bodies are not
// replayable; the caller is responsible for Content-Length or chunked
// transfer encoding.
func (r *Request) SetBodyStream(rc io.ReadCloser) {
	r.body = rc
	r.bodyBytes = nil
	r.hasBytes = false
}

// HasBody reports whether a body of any kind is attached.
func (r *Request) HasBody() bool {
	return r.hasBytes || r.body != nil
}

// BodyBytes returns the byte-slice body and whether one is attached.
// It returns false for stream bodies.
func (r *Request) BodyBytes() ([]byte, bool) {
	return r.bodyBytes, r.hasBytes
}

// BodyReader returns a reader over the body, or nil if there is none.
// For byte bodies a fresh reader is returned on each call.
func (r *Request) BodyReader() io.Reader {
	if r.hasBytes {
		return bytes.NewReader(r.bodyBytes)
	}
	if r.body != nil {
		return r.body
	}
	return nil
}

// Clone returns a copy of the request with copied headers. Byte bodies are
// shared (they are replayable); a stream body is carried by reference and
// remains single-use.
func (r *Request) Clone() *Request {
	return &Request{
		Method:    r.Method,
		URL:       r.URL,
		Headers:   r.Headers.Clone(),
		body:      r.body,
		bodyBytes: r.bodyBytes,
		hasBytes:  r.hasBytes,
	}
}
