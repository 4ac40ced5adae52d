package rest

import (
	"github.com/kroma-labs/conduit-go/pipeline"
)

// Interface is the declarative description of a REST API surface. It is the
// input to NewProxy; parsing happens once, at client construction.
type Interface struct {
	// Name identifies the interface, used in telemetry and error messages.
	Name string

	// Scheme is the URL scheme for operations whose path is not absolute.
	// Default: "https".
	Scheme string

	// Host is the host template. It may contain {name} placeholders filled
	// by Host parameter bindings, and may itself carry a scheme
	// ("https://{account}.example.com").
	Host string

	// Operations lists the interface's operations.
	Operations []Operation
}

// Operation describes a single REST call: verb, URL template, parameter
// bindings, expected status codes, error mapping, and return shape.
type Operation struct {
	// Name is the operation identifier, unique within the interface.
	Name string

	// Method is the HTTP verb.
	Method string

	// Path is the path template with {name} placeholders, each bound by
	// exactly one Path parameter.
	Path string

	// Params are the parameter bindings in declaration order. Call-site
	// arguments bind positionally: args[i] feeds Params[i].
	Params []Param

	// ExpectedStatus is the non-empty set of success status codes.
	ExpectedStatus []int

	// ContentType, when set, overrides the inferred request body content
	// type.
	ContentType string

	// Returns describes how the response is reshaped into the call's
	// result. Default: ReturnsVoid().
	Returns ReturnSpec

	// Errors maps unexpected statuses to the operation's error type.
	Errors ErrorMapping
}

// ParamKind tags a parameter binding's role.
type ParamKind int

const (
	// KindPath substitutes a path template placeholder.
	KindPath ParamKind = iota

	// KindQuery sets a query parameter.
	KindQuery

	// KindHeader sets a request header.
	KindHeader

	// KindHeaderMap expands a map argument into prefixed headers.
	KindHeaderMap

	// KindBody carries the request body.
	KindBody

	// KindHost substitutes a host template placeholder.
	KindHost

	// KindContext contributes an entry to the per-call context.
	KindContext
)

func (k ParamKind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindQuery:
		return "query"
	case KindHeader:
		return "header"
	case KindHeaderMap:
		return "header-map"
	case KindBody:
		return "body"
	case KindHost:
		return "host"
	case KindContext:
		return "context"
	default:
		return "unknown"
	}
}

// BodyKind tags the declared wire type of a body binding.
type BodyKind int

const (
	// BodyAuto infers the wire form from the argument. Without an explicit
	// content type, bytes and text are sent as application/octet-stream and
	// everything else, streams included, is serialized as JSON. Under a
	// non-JSON content type, bytes and non-empty text attach raw, streams
	// attach unchanged, and everything else is serialized by that type's
	// codec.
	BodyAuto BodyKind = iota

	// BodyStream declares a caller-owned chunk stream attached unchanged.
	// The caller is responsible for Content-Length or chunked encoding.
	BodyStream
)

// Param is one parameter binding. Construct with the helper functions below.
type Param struct {
	// Kind is the binding's role.
	Kind ParamKind

	// Name is the placeholder, query key, header name, header prefix, or
	// context key, depending on Kind.
	Name string

	// SkipEncoding disables percent-encoding for path and query values.
	SkipEncoding bool

	// Body is the declared wire type for KindBody bindings.
	Body BodyKind
}

// PathParam binds an argument to the path placeholder of the same name,
// percent-encoding its value.
func PathParam(name string) Param {
	return Param{Kind: KindPath, Name: name}
}

// RawPathParam binds an argument to a path placeholder without encoding.
func RawPathParam(name string) Param {
	return Param{Kind: KindPath, Name: name, SkipEncoding: true}
}

// QueryParam binds an argument to a query key, percent-encoding its value.
func QueryParam(name string) Param {
	return Param{Kind: KindQuery, Name: name}
}

// RawQueryParam binds an argument to a query key without encoding.
func RawQueryParam(name string) Param {
	return Param{Kind: KindQuery, Name: name, SkipEncoding: true}
}

// HeaderParam binds an argument to a request header. Header bindings are
// applied last and override any inferred header, including Content-Type.
func HeaderParam(name string) Param {
	return Param{Kind: KindHeader, Name: name}
}

// HeaderMapParam binds a map[string]string argument: each entry becomes a
// header named prefix+key.
func HeaderMapParam(prefix string) Param {
	return Param{Kind: KindHeaderMap, Name: prefix}
}

// BodyParam binds an argument as the request body with the wire form
// inferred from the argument's type.
func BodyParam() Param {
	return Param{Kind: KindBody, Body: BodyAuto}
}

// StreamBodyParam binds an io.ReadCloser argument as a chunk-stream body
// attached unchanged.
func StreamBodyParam() Param {
	return Param{Kind: KindBody, Body: BodyStream}
}

// HostParam binds an argument to the host placeholder of the same name.
func HostParam(name string) Param {
	return Param{Kind: KindHost, Name: name}
}

// ContextParam binds an argument to a per-call context entry under key.
func ContextParam(key string) Param {
	return Param{Kind: KindContext, Name: key}
}

// ReturnShape selects how the invocation engine reshapes a validated
// response.
type ReturnShape int

const (
	// ShapeVoid drains the body and yields nothing.
	ShapeVoid ReturnShape = iota

	// ShapeStream yields the raw body stream, transferring ownership.
	ShapeStream

	// ShapeBytes collects the body into a byte slice.
	ShapeBytes

	// ShapeBool yields status success for HEAD operations.
	ShapeBool

	// ShapeEnvelope yields a *ResponseEnvelope.
	ShapeEnvelope

	// ShapeBody yields the deserialized body.
	ShapeBody
)

// ReturnSpec describes an operation's return shape and the decode targets
// backing it.
type ReturnSpec struct {
	// Shape selects the reshaping strategy.
	Shape ReturnShape

	// NewBody creates the deserialization target for the response body.
	// Required for ShapeBody; optional for ShapeEnvelope (nil means a
	// void-bodied envelope).
	NewBody func() any

	// NewHeaders creates the header-model target the response headers are
	// mapped into. Optional, envelope shape only.
	NewHeaders func() any

	// Base64URL marks a bytes-shaped response as base64url-encoded on the
	// wire; the engine decodes it before returning.
	Base64URL bool
}

// ReturnsVoid declares no return value.
func ReturnsVoid() ReturnSpec { return ReturnSpec{Shape: ShapeVoid} }

// ReturnsStream declares the raw body stream as the return value.
func ReturnsStream() ReturnSpec { return ReturnSpec{Shape: ShapeStream} }

// ReturnsBytes declares the collected body bytes as the return value.
func ReturnsBytes() ReturnSpec { return ReturnSpec{Shape: ShapeBytes} }

// ReturnsBase64URLBytes declares body bytes that are base64url-encoded on
// the wire.
func ReturnsBase64URLBytes() ReturnSpec {
	return ReturnSpec{Shape: ShapeBytes, Base64URL: true}
}

// ReturnsBool declares a status-success boolean (HEAD operations only).
func ReturnsBool() ReturnSpec { return ReturnSpec{Shape: ShapeBool} }

// ReturnsEnvelope declares a *ResponseEnvelope return carrying status,
// headers, deserialized headers, and deserialized body. Either factory may
// be nil.
func ReturnsEnvelope(newHeaders, newBody func() any) ReturnSpec {
	return ReturnSpec{Shape: ShapeEnvelope, NewHeaders: newHeaders, NewBody: newBody}
}

// ReturnsBody declares the deserialized body as the return value.
func ReturnsBody(newBody func() any) ReturnSpec {
	return ReturnSpec{Shape: ShapeBody, NewBody: newBody}
}

// ErrorMapping registers an operation's error type and error body type.
type ErrorMapping struct {
	// New constructs the operation's error value from the failure message,
	// the buffered response, and the decoded error body (possibly nil).
	// When nil, failures surface as *UnexpectedStatusError.
	New func(message string, response *pipeline.Response, body any) error

	// NewBody creates the deserialization target for the error body. When
	// nil, the decoded body passed to New is nil.
	NewBody func() any
}
