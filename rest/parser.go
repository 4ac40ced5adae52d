package rest

import (
	"fmt"
	"mime"
	"net/http"
	"regexp"
	"strings"
)

// allowedMethods is the verb set the runtime dispatches.
var allowedMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodHead:    {},
	http.MethodOptions: {},
}

var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// ParseInterface parses a declarative interface description into a method
// plan per operation. Parsing validates the whole description; on any
// inconsistency it fails with a *DescriptionError and publishes no partial
// plans.
func ParseInterface(iface Interface) (map[string]*MethodPlan, error) {
	if iface.Name == "" {
		return nil, &DescriptionError{Reason: "interface name must not be empty"}
	}
	if len(iface.Operations) == 0 {
		return nil, &DescriptionError{Interface: iface.Name, Reason: "interface declares no operations"}
	}

	scheme := iface.Scheme
	if scheme == "" {
		scheme = "https"
	}

	plans := make(map[string]*MethodPlan, len(iface.Operations))
	for i := range iface.Operations {
		op := &iface.Operations[i]
		plan, err := parseOperation(iface.Name, scheme, iface.Host, op)
		if err != nil {
			return nil, err
		}
		if _, exists := plans[op.Name]; exists {
			return nil, &DescriptionError{
				Interface: iface.Name,
				Operation: op.Name,
				Reason:    "duplicate operation name",
			}
		}
		plans[op.Name] = plan
	}
	return plans, nil
}

func parseOperation(ifaceName, scheme, host string, op *Operation) (*MethodPlan, error) {
	fail := func(format string, args ...any) (*MethodPlan, error) {
		return nil, &DescriptionError{
			Interface: ifaceName,
			Operation: op.Name,
			Reason:    fmt.Sprintf(format, args...),
		}
	}

	if op.Name == "" {
		return fail("operation name must not be empty")
	}
	if _, ok := allowedMethods[op.Method]; !ok {
		return fail("unsupported HTTP method %q", op.Method)
	}
	if len(op.ExpectedStatus) == 0 {
		return fail("expected status codes must not be empty")
	}

	if op.ContentType != "" {
		if _, _, err := mime.ParseMediaType(op.ContentType); err != nil {
			return fail("invalid content type %q: %v", op.ContentType, err)
		}
	}

	pathPlaceholders, err := placeholders(op.Path)
	if err != nil {
		return fail("path template: %v", err)
	}
	hostPlaceholders, err := placeholders(host)
	if err != nil {
		return fail("host template: %v", err)
	}

	bodyIndex := -1
	pathBound := make(map[string]int)
	hostBound := make(map[string]int)
	var contentLengthHeader bool
	for i, param := range op.Params {
		switch param.Kind {
		case KindPath:
			if _, ok := pathPlaceholders[param.Name]; !ok {
				return fail("path binding %q has no matching placeholder", param.Name)
			}
			pathBound[param.Name]++
		case KindHost:
			if _, ok := hostPlaceholders[param.Name]; !ok {
				return fail("host binding %q has no matching placeholder", param.Name)
			}
			hostBound[param.Name]++
		case KindBody:
			if bodyIndex >= 0 {
				return fail("at most one body binding is allowed")
			}
			bodyIndex = i
		case KindHeader:
			if strings.EqualFold(param.Name, "Content-Length") {
				contentLengthHeader = true
			}
		case KindQuery, KindHeaderMap, KindContext:
		default:
			return fail("unsupported parameter kind %v", param.Kind)
		}
	}

	for name := range pathPlaceholders {
		switch pathBound[name] {
		case 0:
			return fail("path placeholder {%s} has no binding", name)
		case 1:
		default:
			return fail("path placeholder {%s} has multiple bindings", name)
		}
	}
	for name := range hostPlaceholders {
		switch hostBound[name] {
		case 0:
			return fail("host placeholder {%s} has no binding", name)
		case 1:
		default:
			return fail("host placeholder {%s} has multiple bindings", name)
		}
	}

	if bodyIndex >= 0 && op.Params[bodyIndex].Body == BodyStream && contentLengthHeader {
		// A stream body's framing belongs to the caller; a Content-Length
		// header binding alongside it is ambiguous and rejected outright
		// rather than silently overridden.
		return fail("stream body cannot be combined with a Content-Length header binding")
	}

	switch op.Returns.Shape {
	case ShapeBody:
		if op.Returns.NewBody == nil {
			return fail("body return shape requires a body factory")
		}
	case ShapeBool:
		if op.Method != http.MethodHead {
			return fail("boolean return shape is only valid for HEAD operations")
		}
	case ShapeVoid, ShapeStream, ShapeBytes, ShapeEnvelope:
	default:
		return fail("unsupported return shape %v", op.Returns.Shape)
	}

	expected := make(map[int]struct{}, len(op.ExpectedStatus))
	for _, code := range op.ExpectedStatus {
		if code < 100 || code > 599 {
			return fail("expected status %d is not a valid HTTP status", code)
		}
		expected[code] = struct{}{}
	}

	return &MethodPlan{
		ifaceName:   ifaceName,
		scheme:      scheme,
		host:        host,
		name:        op.Name,
		method:      op.Method,
		path:        op.Path,
		params:      append([]Param(nil), op.Params...),
		expected:    expected,
		contentType: op.ContentType,
		returns:     op.Returns,
		errs:        op.Errors,
		bodyIndex:   bodyIndex,
	}, nil
}

// placeholders extracts {name} placeholders from a template, rejecting
// duplicates.
func placeholders(template string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, match := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		name := match[1]
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("duplicate placeholder {%s}", name)
		}
		out[name] = struct{}{}
	}
	return out, nil
}
