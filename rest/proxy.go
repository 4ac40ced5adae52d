package rest

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kroma-labs/conduit-go/pipeline"
	"github.com/kroma-labs/conduit-go/serde"
)

// Proxy is the invocation engine for one parsed interface description. It
// glues method plans, the policy pipeline, and the response decoder into
// typed calls: a lookup plus dispatch per invocation, with nothing
// re-parsed on the hot path.
//
// A Proxy is immutable and safe for concurrent use.
type Proxy struct {
	ifaceName string
	plans     map[string]*MethodPlan
	pipe      *pipeline.Pipeline
	ser       serde.Serializer
	decoder   *Decoder
	resumer   Resumer
	log       zerolog.Logger
}

// ProxyOption configures a Proxy.
type ProxyOption func(*Proxy)

// WithResumer installs the long-running-operation resume hook.
func WithResumer(r Resumer) ProxyOption {
	return func(p *Proxy) { p.resumer = r }
}

// WithProxyLogger sets the proxy's diagnostic logger.
func WithProxyLogger(log zerolog.Logger) ProxyOption {
	return func(p *Proxy) { p.log = log }
}

// NewProxy parses the interface description and builds its invocation
// engine. An inconsistent description fails with *DescriptionError.
func NewProxy(iface Interface, pipe *pipeline.Pipeline, ser serde.Serializer, opts ...ProxyOption) (*Proxy, error) {
	plans, err := ParseInterface(iface)
	if err != nil {
		return nil, err
	}
	p := &Proxy{
		ifaceName: iface.Name,
		plans:     plans,
		pipe:      pipe,
		ser:       ser,
		decoder:   NewDecoder(ser),
		log:       zerolog.New(os.Stderr).Level(zerolog.Disabled),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Plan returns the method plan for an operation.
func (p *Proxy) Plan(operation string) (*MethodPlan, bool) {
	plan, ok := p.plans[operation]
	return plan, ok
}

// Pipeline returns the pipeline the proxy dispatches through.
func (p *Proxy) Pipeline() *pipeline.Pipeline { return p.pipe }

// Invoke executes an operation by name with positional arguments and
// reshapes the response per the plan's return shape. The concrete result
// type depends on the shape: nil for void, io.ReadCloser for streams,
// []byte, bool, *ResponseEnvelope, or the deserialized body.
func (p *Proxy) Invoke(ctx context.Context, operation string, args ...any) (any, error) {
	return p.InvokeAllowing(ctx, operation, nil, args...)
}

// InvokeAllowing executes an operation accepting extra status codes beyond
// the plan's expected set, as long-running-operation pollers require.
func (p *Proxy) InvokeAllowing(ctx context.Context, operation string, extraAllowed []int, args ...any) (any, error) {
	plan, ok := p.plans[operation]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownOperation, p.ifaceName, operation)
	}

	req, err := buildRequest(plan, args, p.ser)
	if err != nil {
		return nil, err
	}

	data := plan.contextData(args)
	if data == nil {
		data = make(map[string]any, 2)
	}
	data["caller-method"] = plan.FullyQualifiedName()
	var decoded *DecodedResponse
	data[pipeline.DecodeHookKey] = pipeline.DecodeHook(func(resp *pipeline.Response) (*pipeline.Response, error) {
		decoded = p.decoder.Decode(resp, plan, extraAllowed...)
		return resp, nil
	})

	cc := p.pipe.NewContext(ctx, req, data)
	resp, err := p.pipe.Do(cc)
	if err != nil {
		return nil, err
	}
	if decoded == nil {
		// No decoding policy in the chain; decode at the engine boundary.
		decoded = p.decoder.Decode(resp, plan, extraAllowed...)
	}

	if err := p.ensureExpectedStatus(decoded, plan, extraAllowed); err != nil {
		return nil, err
	}
	return p.reshape(decoded, plan)
}

// Resume re-enters a long-running operation from its serialized
// description. Without an installed Resumer it fails with ErrNotSupported.
func (p *Proxy) Resume(ctx context.Context, desc OperationDescription) (any, error) {
	if p.resumer == nil {
		return nil, ErrNotSupported
	}
	if _, ok := p.plans[desc.Name]; !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownOperation, p.ifaceName, desc.Name)
	}
	return p.resumer.Resume(ctx, desc)
}

// ensureExpectedStatus validates the response status against the plan and
// the caller's extra allowed codes, producing the operation's typed failure
// for disallowed statuses.
func (p *Proxy) ensureExpectedStatus(decoded *DecodedResponse, plan *MethodPlan, extraAllowed []int) error {
	resp := decoded.Response()
	if plan.IsExpected(resp.StatusCode, extraAllowed...) {
		return nil
	}

	// Buffer so both the text representation and the decoded error body can
	// read the same bytes, and the error value keeps a readable response.
	if err := resp.Buffer(); err != nil && err != pipeline.ErrBodyConsumed {
		return err
	}
	text, terr := resp.Text()
	if terr != nil {
		text = ""
	}
	body, derr := decoded.DecodedBody()
	if derr != nil {
		// An undecodable error body is reported as absent.
		body = nil
	}

	message := statusMessage(
		resp.StatusCode,
		strings.TrimSpace(strings.Split(resp.Headers.Get("Content-Type"), ";")[0]),
		resp.Headers.Get("Content-Length"),
		text,
	)

	if plan.errs.New != nil {
		if opErr := p.construct(plan, message, resp, body); opErr != nil {
			return opErr
		}
		p.log.Debug().
			Str("operation", plan.FullyQualifiedName()).
			Int("status", resp.StatusCode).
			Msg("operation error type could not be constructed")
	}
	return &UnexpectedStatusError{
		StatusCode: resp.StatusCode,
		Response:   resp,
		Body:       body,
		message:    message,
	}
}

// construct invokes the operation's error constructor, degrading to nil when
// the constructor panics or declines.
func (p *Proxy) construct(plan *MethodPlan, message string, resp *pipeline.Response, body any) (opErr error) {
	defer func() {
		if recover() != nil {
			opErr = nil
		}
	}()
	return plan.errs.New(message, resp, body)
}

// reshape converts a validated decoded response into the plan's declared
// return value.
func (p *Proxy) reshape(decoded *DecodedResponse, plan *MethodPlan) (any, error) {
	resp := decoded.Response()
	ret := plan.returns

	switch ret.Shape {
	case ShapeVoid:
		return nil, resp.Drain()

	case ShapeStream:
		// Ownership of the chunk stream transfers to the caller.
		return resp.Body(), nil

	case ShapeBytes:
		data, err := resp.Bytes()
		if err != nil {
			return nil, err
		}
		if ret.Base64URL {
			return decodeBase64URL(data)
		}
		return data, nil

	case ShapeBool:
		return resp.StatusCode >= 200 && resp.StatusCode < 300, nil

	case ShapeEnvelope:
		headers, err := decoded.DecodedHeaders()
		if err != nil {
			return nil, &DecodingError{Operation: plan.name, Err: err}
		}
		var body any
		if ret.NewBody != nil {
			body, err = decoded.DecodedBody()
			if err != nil {
				return nil, err
			}
		} else if err := resp.Drain(); err != nil {
			return nil, err
		}
		return &ResponseEnvelope{
			Request:             resp.Request,
			StatusCode:          resp.StatusCode,
			Headers:             resp.Headers.Map(),
			DeserializedHeaders: headers,
			Body:                body,
		}, nil

	case ShapeBody:
		return decoded.DecodedBody()

	default:
		return nil, fmt.Errorf("operation %q: unsupported return shape", plan.name)
	}
}

// decodeBase64URL decodes a base64url payload, tolerating both padded and
// unpadded forms and surrounding JSON quotes.
func decodeBase64URL(data []byte) ([]byte, error) {
	s := strings.Trim(strings.TrimSpace(string(data)), "\"")
	s = strings.TrimRight(s, "=")
	return base64.RawURLEncoding.DecodeString(s)
}
