package rest

import (
	"context"

	json "github.com/goccy/go-json"

	"github.com/kroma-labs/conduit-go/pipeline"
)

// OperationDescription is the serialized form of an in-flight operation:
// enough to rebuild its request without re-evaluating the original
// arguments. The wire encoding is JSON.
type OperationDescription struct {
	// Name is the operation identifier the description was captured from.
	Name string `json:"operationName"`

	// URL is the absolute request URL.
	URL string `json:"url"`

	// Headers is the frozen header map.
	Headers map[string]string `json:"headers"`

	// State is an opaque blob owned by the resume implementation.
	State []byte `json:"state"`
}

// EncodeOperationDescription serializes a description to its wire form.
func EncodeOperationDescription(desc OperationDescription) ([]byte, error) {
	return json.Marshal(desc)
}

// DecodeOperationDescription parses a description from its wire form.
func DecodeOperationDescription(data []byte) (OperationDescription, error) {
	var desc OperationDescription
	err := json.Unmarshal(data, &desc)
	return desc, err
}

// Resumer re-enters a long-running operation from a serialized description,
// surfacing intermediate and final results in the same envelope shape as the
// original call. Implementations typically rebuild the plan from desc.Name
// and re-issue requests against desc.URL with the frozen headers.
type Resumer interface {
	Resume(ctx context.Context, desc OperationDescription) (any, error)
}

// RequestFromDescription rebuilds a request for a serialized operation: the
// plan's verb against the frozen URL, the body resolved from the provided
// arguments, and the frozen headers applied last so they take precedence
// over inferred ones.
func (p *Proxy) RequestFromDescription(desc OperationDescription, args ...any) (*pipeline.Request, error) {
	plan, ok := p.plans[desc.Name]
	if !ok {
		return nil, ErrUnknownOperation
	}

	req := pipeline.NewRequest(plan.method, desc.URL)

	padded := make([]any, len(plan.params))
	copy(padded, args)
	if err := attachBody(plan, padded, p.ser, req); err != nil {
		return nil, err
	}

	for name, value := range desc.Headers {
		req.Headers.Set(name, value)
	}
	return req, nil
}
