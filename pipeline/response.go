package pipeline

import (
	"bytes"
	"io"
	"mime"
	"strings"
	"sync"

	"golang.org/x/text/encoding/ianaindex"
)

// DecodedHandle lazily produces a deserialized value for a response.
// Handles are attached by the decoding hook; see DecodingPolicy.
type DecodedHandle func() (any, error)

// Response is one HTTP response. The body is a lazy chunk stream consumed at
// most once; Buffer converts it into a replayable in-memory copy.
//
// A response optionally carries two decoder side channels, the deserialized
// headers and deserialized body handles, so downstream consumers can observe
// typed data without re-reading the wire.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Headers holds the response headers.
	Headers *Headers

	// Request is the request that produced this response.
	Request *Request

	mu       sync.Mutex
	body     io.ReadCloser
	streamed bool   // raw stream handed to a caller
	buffered bool   // body materialized into buf
	buf      []byte

	decodedHeaders DecodedHandle
	decodedBody    DecodedHandle
}

// NewResponse creates a response over the given body stream. A nil body is
// treated as an empty body.
func NewResponse(statusCode int, headers *Headers, req *Request, body io.ReadCloser) *Response {
	if headers == nil {
		headers = NewHeaders()
	}
	return &Response{
		StatusCode: statusCode,
		Headers:    headers,
		Request:    req,
		body:       body,
	}
}

// Body returns the response body stream, transferring ownership to the
// caller. After the stream has been handed out or drained, further reads
// fail with ErrBodyConsumed. A buffered response (including one already
// materialized by Bytes or Text) returns a fresh replayable stream on every
// call.
func (r *Response) Body() io.ReadCloser {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.buffered {
		return io.NopCloser(bytes.NewReader(r.buf))
	}
	if r.streamed || r.body == nil {
		return &errReadCloser{err: ErrBodyConsumed}
	}
	r.streamed = true
	return r.body
}

// Bytes materializes the body as a byte slice. The materialization happens
// once; subsequent calls return the same bytes. It fails with ErrBodyConsumed
// if the raw stream was already handed out.
func (r *Response) Bytes() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.materializeLocked(); err != nil {
		return nil, err
	}
	return r.buf, nil
}

// Text materializes the body as text. UTF-8 is assumed unless the
// Content-Type charset parameter names another encoding.
func (r *Response) Text() (string, error) {
	b, err := r.Bytes()
	if err != nil {
		return "", err
	}
	cs := r.charset()
	if cs == "" || strings.EqualFold(cs, "utf-8") {
		return string(b), nil
	}
	enc, err := ianaindex.MIME.Encoding(cs)
	if err != nil || enc == nil {
		return string(b), nil
	}
	decoded, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// Drain discards the body without materializing it, releasing the underlying
// connection. Draining an already-consumed or buffered body is a no-op.
func (r *Response) Drain() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.buffered || r.streamed || r.body == nil {
		return nil
	}
	r.streamed = true
	_, err := io.Copy(io.Discard, r.body)
	if cerr := r.body.Close(); err == nil {
		err = cerr
	}
	return err
}

// Buffer eagerly drains the body into memory and re-exposes it as a
// replayable stream. Buffering an already-consumed stream fails with
// ErrBodyConsumed.
func (r *Response) Buffer() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.materializeLocked()
}

// Buffered reports whether the body has been materialized in memory.
func (r *Response) Buffered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buffered
}

// Consumed reports whether the raw body stream is no longer readable.
func (r *Response) Consumed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.streamed && !r.buffered
}

// Close releases the body if it has not been consumed.
func (r *Response) Close() error {
	return r.Drain()
}

// SetDecoded attaches the deserialized-headers and deserialized-body handles.
func (r *Response) SetDecoded(headers, body DecodedHandle) {
	r.decodedHeaders = headers
	r.decodedBody = body
}

// DecodedHeaders returns the deserialized headers, or nil if no decoding hook
// was installed.
func (r *Response) DecodedHeaders() (any, error) {
	if r.decodedHeaders == nil {
		return nil, nil
	}
	return r.decodedHeaders()
}

// DecodedBody returns the deserialized body, or nil if no decoding hook was
// installed or the body was consumed directly by the caller.
func (r *Response) DecodedBody() (any, error) {
	if r.decodedBody == nil {
		return nil, nil
	}
	return r.decodedBody()
}

func (r *Response) materializeLocked() error {
	if r.buffered {
		return nil
	}
	if r.streamed {
		return ErrBodyConsumed
	}
	if r.body == nil {
		r.buffered = true
		return nil
	}
	r.streamed = true
	b, err := io.ReadAll(r.body)
	if cerr := r.body.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	r.buf = b
	r.buffered = true
	return nil
}

func (r *Response) charset() string {
	ct := r.Headers.Get("Content-Type")
	if ct == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return params["charset"]
}

type errReadCloser struct{ err error }

func (e *errReadCloser) Read([]byte) (int, error) { return 0, e.err }
func (e *errReadCloser) Close() error             { return nil }
