package rest

// MethodPlan is the parsed, immutable form of one Operation. A plan is built
// once by the interface parser and consumed on every invocation; it exposes
// pure accessors only.
type MethodPlan struct {
	ifaceName string
	scheme    string
	host      string

	name        string
	method      string
	path        string
	params      []Param
	expected    map[int]struct{}
	contentType string
	returns     ReturnSpec
	errs        ErrorMapping

	bodyIndex int // index into params, -1 when no body binding
}

// Name returns the operation identifier.
func (p *MethodPlan) Name() string { return p.name }

// FullyQualifiedName returns "Interface.Operation", used for telemetry.
func (p *MethodPlan) FullyQualifiedName() string {
	return p.ifaceName + "." + p.name
}

// Method returns the HTTP verb.
func (p *MethodPlan) Method() string { return p.method }

// Scheme returns the URL scheme for non-absolute paths.
func (p *MethodPlan) Scheme() string { return p.scheme }

// HostTemplate returns the host template.
func (p *MethodPlan) HostTemplate() string { return p.host }

// PathTemplate returns the path template.
func (p *MethodPlan) PathTemplate() string { return p.path }

// Params returns the parameter bindings in declaration order.
func (p *MethodPlan) Params() []Param {
	return append([]Param(nil), p.params...)
}

// ContentType returns the explicit body content type, or "".
func (p *MethodPlan) ContentType() string { return p.contentType }

// Return returns the return shape descriptor.
func (p *MethodPlan) Return() ReturnSpec { return p.returns }

// Errors returns the error mapping descriptor.
func (p *MethodPlan) Errors() ErrorMapping { return p.errs }

// ExpectedStatus returns the plan's expected status codes.
func (p *MethodPlan) ExpectedStatus() []int {
	out := make([]int, 0, len(p.expected))
	for code := range p.expected {
		out = append(out, code)
	}
	return out
}

// IsExpected reports whether the status counts as success: it must be in the
// plan's expected set or among the caller's extra allowed codes.
// Informational 1xx statuses are never success unless a plan opts in by
// listing them explicitly.
func (p *MethodPlan) IsExpected(status int, extraAllowed ...int) bool {
	if _, ok := p.expected[status]; ok {
		return true
	}
	if status >= 100 && status < 200 {
		return false
	}
	for _, code := range extraAllowed {
		if code == status {
			return true
		}
	}
	return false
}

// contextData collects KindContext bindings from call-site arguments.
func (p *MethodPlan) contextData(args []any) map[string]any {
	var data map[string]any
	for i, param := range p.params {
		if param.Kind != KindContext || i >= len(args) {
			continue
		}
		if data == nil {
			data = make(map[string]any)
		}
		data[param.Name] = args[i]
	}
	return data
}
