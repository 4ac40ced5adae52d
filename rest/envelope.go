package rest

import "github.com/kroma-labs/conduit-go/pipeline"

// ResponseEnvelope is the typed response value returned by envelope-shaped
// operations: status, raw headers, deserialized headers, and deserialized
// body (nil for void-bodied envelopes).
type ResponseEnvelope struct {
	// Request is the request that produced this response.
	Request *pipeline.Request

	// StatusCode is the HTTP status.
	StatusCode int

	// Headers is the raw response header map.
	Headers map[string]string

	// DeserializedHeaders is the plan's header model filled from the
	// response headers, or nil when none is declared.
	DeserializedHeaders any

	// Body is the deserialized body, or nil.
	Body any
}
