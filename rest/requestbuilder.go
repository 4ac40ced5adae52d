package rest

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/kroma-labs/conduit-go/pipeline"
	"github.com/kroma-labs/conduit-go/serde"
)

// buildRequest turns a method plan plus call-site arguments into a concrete
// request. Arguments bind positionally to the plan's parameter list.
func buildRequest(plan *MethodPlan, args []any, ser serde.Serializer) (*pipeline.Request, error) {
	if len(args) != len(plan.params) {
		return nil, fmt.Errorf("operation %q: got %d arguments, want %d",
			plan.name, len(args), len(plan.params))
	}

	// Callers sometimes pass a full URL as a path argument (paging links).
	// Such an argument is adopted verbatim, skipping encoding and the host
	// template.
	var builder *pipeline.URLBuilder
	for i, param := range plan.params {
		if param.Kind != KindPath {
			continue
		}
		if value := argString(args[i]); pipeline.ParseURL(value).Scheme() != "" {
			builder = pipeline.ParseURL(value)
			break
		}
	}

	if builder == nil {
		path := plan.path
		for i, param := range plan.params {
			if param.Kind != KindPath {
				continue
			}
			value := argString(args[i])
			if !param.SkipEncoding {
				value = url.PathEscape(value)
			}
			path = strings.ReplaceAll(path, "{"+param.Name+"}", value)
		}
		host := plan.host
		for i, param := range plan.params {
			if param.Kind != KindHost {
				continue
			}
			host = strings.ReplaceAll(host, "{"+param.Name+"}", argString(args[i]))
		}
		builder = &pipeline.URLBuilder{}
		builder.WithPath(path)
		builder.WithScheme(plan.scheme)
		builder.WithHost(host)
	}

	for i, param := range plan.params {
		if param.Kind != KindQuery {
			continue
		}
		value := argString(args[i])
		if !param.SkipEncoding {
			value = url.QueryEscape(value)
		}
		builder.SetQuery(param.Name, value)
	}

	req := pipeline.NewRequest(plan.method, builder.String())

	if err := attachBody(plan, args, ser, req); err != nil {
		return nil, err
	}

	// Header bindings come last so caller-supplied headers override any
	// inferred header, including Content-Type.
	for i, param := range plan.params {
		switch param.Kind {
		case KindHeader:
			req.Headers.Set(param.Name, argString(args[i]))
		case KindHeaderMap:
			entries, ok := args[i].(map[string]string)
			if !ok {
				return nil, fmt.Errorf("operation %q: header-map argument must be map[string]string, got %T",
					plan.name, args[i])
			}
			for key, value := range entries {
				req.Headers.Set(param.Name+key, value)
			}
		}
	}

	if req.Headers.Has("Content-Length") && req.Headers.Has("Transfer-Encoding") {
		return nil, &DescriptionError{
			Interface: plan.ifaceName,
			Operation: plan.name,
			Reason:    "Content-Length and Transfer-Encoding are mutually exclusive",
		}
	}

	return req, nil
}

func attachBody(plan *MethodPlan, args []any, ser serde.Serializer, req *pipeline.Request) error {
	if plan.bodyIndex < 0 {
		req.Headers.Set("Content-Length", "0")
		return nil
	}
	body := args[plan.bodyIndex]
	if body == nil {
		req.Headers.Set("Content-Length", "0")
		return nil
	}

	contentType := plan.contentType
	if contentType == "" {
		switch body.(type) {
		case []byte, string:
			contentType = "application/octet-stream"
		default:
			contentType = "application/json"
		}
	}
	req.Headers.Set("Content-Type", contentType)

	if serde.IsJSONContentType(contentType) {
		data, err := ser.Marshal(body, serde.EncodingJSON)
		if err != nil {
			return &SerializationError{Operation: plan.name, Err: err}
		}
		req.SetBody(data)
		return nil
	}

	if plan.params[plan.bodyIndex].Body == BodyStream {
		rc, ok := body.(io.ReadCloser)
		if !ok {
			return &SerializationError{
				Operation: plan.name,
				Err:       fmt.Errorf("stream body argument must be io.ReadCloser, got %T", body),
			}
		}
		req.SetBodyStream(rc)
		return nil
	}

	switch t := body.(type) {
	case io.ReadCloser:
		req.SetBodyStream(t)
		return nil
	case []byte:
		req.SetBody(t)
		return nil
	case string:
		if t != "" {
			req.SetBodyString(t)
		}
		return nil
	}

	enc, err := serde.EncodingFromHeaders(req.Headers)
	if err != nil {
		return &SerializationError{Operation: plan.name, Err: err}
	}
	data, err := ser.Marshal(body, enc)
	if err != nil {
		return &SerializationError{Operation: plan.name, Err: err}
	}
	req.SetBody(data)
	return nil
}

// argString renders a call-site argument for URL, query, or header use.
func argString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
