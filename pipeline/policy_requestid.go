package pipeline

import "github.com/google/uuid"

// RequestIDHeader is the header carrying the per-request client id.
const RequestIDHeader = "x-ms-client-request-id"

// RequestIDPolicy puts a freshly generated v4 UUID in the request-id header
// unless the caller already supplied one.
type RequestIDPolicy struct{}

// NewRequestIDPolicy creates a RequestIDPolicy.
func NewRequestIDPolicy() *RequestIDPolicy {
	return &RequestIDPolicy{}
}

// Do implements Policy.
func (p *RequestIDPolicy) Do(cc *CallContext, next *Next) (*Response, error) {
	if cc.Request().Headers.Get(RequestIDHeader) == "" {
		cc.Request().Headers.Set(RequestIDHeader, uuid.New().String())
	}
	return next.Do()
}
