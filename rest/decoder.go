package rest

import (
	"sync"

	json "github.com/goccy/go-json"

	"github.com/kroma-labs/conduit-go/pipeline"
	"github.com/kroma-labs/conduit-go/serde"
)

// Decoder lazily produces the deserialized headers and body of a response
// according to a method plan.
type Decoder struct {
	ser serde.Serializer
}

// NewDecoder creates a Decoder over the given serializer.
func NewDecoder(ser serde.Serializer) *Decoder {
	return &Decoder{ser: ser}
}

// DecodedResponse wraps a response with memoized deserialized-headers and
// deserialized-body handles. Multiple observers share one materialization;
// if the body stream was consumed directly by the caller, the body handle
// resolves to nil.
type DecodedResponse struct {
	resp         *pipeline.Response
	plan         *MethodPlan
	ser          serde.Serializer
	extraAllowed []int

	headersOnce sync.Once
	headersVal  any
	headersErr  error

	bodyOnce sync.Once
	bodyVal  any
	bodyErr  error
}

// Decode wraps resp with lazy typed handles and attaches them as the
// response's decoder side channels. Extra allowed status codes widen the
// plan's expected set for this call, so body-type selection agrees with the
// caller's status validation.
func (d *Decoder) Decode(resp *pipeline.Response, plan *MethodPlan, extraAllowed ...int) *DecodedResponse {
	decoded := &DecodedResponse{resp: resp, plan: plan, ser: d.ser, extraAllowed: extraAllowed}
	resp.SetDecoded(decoded.DecodedHeaders, decoded.DecodedBody)
	return decoded
}

// Response returns the wrapped raw response.
func (d *DecodedResponse) Response() *pipeline.Response { return d.resp }

// DecodedHeaders maps the response headers into the header model declared by
// the plan's return shape. It resolves to nil when the plan declares no
// header model.
func (d *DecodedResponse) DecodedHeaders() (any, error) {
	d.headersOnce.Do(func() {
		newHeaders := d.plan.returns.NewHeaders
		if newHeaders == nil {
			return
		}
		target := newHeaders()
		// Header models are tagged like JSON payloads; round-tripping the
		// raw header map through the JSON codec fills them.
		raw, err := json.Marshal(d.resp.Headers.Map())
		if err != nil {
			d.headersErr = err
			return
		}
		if err := json.Unmarshal(raw, target); err != nil {
			d.headersErr = err
			return
		}
		d.headersVal = target
	})
	return d.headersVal, d.headersErr
}

// DecodedBody materializes the body bytes once and parses them with the
// codec selected by Content-Type. The decode target depends on the status:
// an expected status decodes into the return shape's body model, an
// unexpected one into the error mapping's body model. An empty body, a
// missing model, or a body already consumed by the caller resolves to nil.
func (d *DecodedResponse) DecodedBody() (any, error) {
	d.bodyOnce.Do(func() {
		var newBody func() any
		if d.plan.IsExpected(d.resp.StatusCode, d.extraAllowed...) {
			newBody = d.plan.returns.NewBody
		} else {
			newBody = d.plan.errs.NewBody
		}
		if newBody == nil {
			return
		}
		if d.resp.Consumed() {
			return
		}
		data, err := d.resp.Bytes()
		if err != nil {
			d.bodyErr = err
			return
		}
		if len(data) == 0 {
			return
		}
		enc, err := serde.EncodingFromHeaders(d.resp.Headers)
		if err != nil {
			d.bodyErr = &DecodingError{Operation: d.plan.name, Err: err}
			return
		}
		target := newBody()
		if err := d.ser.Unmarshal(data, target, enc); err != nil {
			d.bodyErr = &DecodingError{Operation: d.plan.name, Err: err}
			return
		}
		d.bodyVal = target
	})
	return d.bodyVal, d.bodyErr
}
