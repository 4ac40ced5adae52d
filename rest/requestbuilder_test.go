package rest

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kroma-labs/conduit-go/serde"
)

func mustPlan(t *testing.T, host, scheme string, op Operation) *MethodPlan {
	t.Helper()
	plans, err := ParseInterface(Interface{
		Name:       "Svc",
		Scheme:     scheme,
		Host:       host,
		Operations: []Operation{op},
	})
	require.NoError(t, err)
	return plans[op.Name]
}

func TestBuildRequest_SimpleGetWithPathParam(t *testing.T) {
	plan := mustPlan(t, "host", "https", Operation{
		Name:           "GetItem",
		Method:         http.MethodGet,
		Path:           "/items/{id}",
		Params:         []Param{PathParam("id")},
		ExpectedStatus: []int{200},
	})

	req, err := buildRequest(plan, []any{"abc"}, serde.NewSerializer())
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "https://host/items/abc", req.URL)
	assert.Equal(t, "0", req.Headers.Get("Content-Length"))
	assert.False(t, req.HasBody())
}

func TestBuildRequest_PostJSONWithOverridingHeader(t *testing.T) {
	plan := mustPlan(t, "host", "https", Operation{
		Name:           "Create",
		Method:         http.MethodPost,
		Path:           "/x",
		Params:         []Param{BodyParam(), HeaderParam("X-Debug")},
		ExpectedStatus: []int{200},
	})

	req, err := buildRequest(plan, []any{map[string]int{"a": 1}, "on"}, serde.NewSerializer())
	require.NoError(t, err)

	assert.Equal(t, "application/json", req.Headers.Get("Content-Type"))
	assert.Equal(t, "on", req.Headers.Get("X-Debug"))
	body, ok := req.BodyBytes()
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(body))
}

func TestBuildRequest_AbsolutePathOverride(t *testing.T) {
	plan := mustPlan(t, "original-host", "https", Operation{
		Name:           "NextPage",
		Method:         http.MethodGet,
		Path:           "{nextLink}",
		Params:         []Param{PathParam("nextLink")},
		ExpectedStatus: []int{200},
	})

	req, err := buildRequest(plan, []any{"https://other/host/page2?x=1"}, serde.NewSerializer())
	require.NoError(t, err)

	assert.Equal(t, "https://other/host/page2?x=1", req.URL)
}

func TestBuildRequest_AbsolutePathKeepsQueryBindings(t *testing.T) {
	plan := mustPlan(t, "original-host", "https", Operation{
		Name:           "NextPage",
		Method:         http.MethodGet,
		Path:           "{nextLink}",
		Params:         []Param{PathParam("nextLink"), QueryParam("api-version")},
		ExpectedStatus: []int{200},
	})

	req, err := buildRequest(plan, []any{"https://other/host/page2?x=1", "2024-01-01"}, serde.NewSerializer())
	require.NoError(t, err)

	assert.Equal(t, "https://other/host/page2?x=1&api-version=2024-01-01", req.URL)
}

func TestBuildRequest_HeaderPrecedence(t *testing.T) {
	// Caller-supplied header bindings override every inferred header,
	// including Content-Type.
	plan := mustPlan(t, "host", "https", Operation{
		Name:           "Upload",
		Method:         http.MethodPut,
		Path:           "/blob",
		Params:         []Param{BodyParam(), HeaderParam("Content-Type")},
		ExpectedStatus: []int{201},
	})

	req, err := buildRequest(plan, []any{[]byte{1, 2, 3}, "image/png"}, serde.NewSerializer())
	require.NoError(t, err)

	assert.Equal(t, "image/png", req.Headers.Get("Content-Type"))
}

func TestBuildRequest_QueryEncodingAndOrder(t *testing.T) {
	plan := mustPlan(t, "host", "https", Operation{
		Name:   "Search",
		Method: http.MethodGet,
		Path:   "/search",
		Params: []Param{
			QueryParam("q"),
			RawQueryParam("filter"),
		},
		ExpectedStatus: []int{200},
	})

	req, err := buildRequest(plan, []any{"a b", "x%20y"}, serde.NewSerializer())
	require.NoError(t, err)

	assert.Equal(t, "https://host/search?q=a+b&filter=x%20y", req.URL)
}

func TestBuildRequest_PathEscaping(t *testing.T) {
	plan := mustPlan(t, "host", "https", Operation{
		Name:           "GetItem",
		Method:         http.MethodGet,
		Path:           "/items/{id}",
		Params:         []Param{PathParam("id")},
		ExpectedStatus: []int{200},
	})

	req, err := buildRequest(plan, []any{"a/b c"}, serde.NewSerializer())
	require.NoError(t, err)
	assert.Equal(t, "https://host/items/a%2Fb%20c", req.URL)
}

func TestBuildRequest_HostParam(t *testing.T) {
	plan := mustPlan(t, "{account}.example.com", "https", Operation{
		Name:           "Get",
		Method:         http.MethodGet,
		Path:           "/v",
		Params:         []Param{HostParam("account")},
		ExpectedStatus: []int{200},
	})

	req, err := buildRequest(plan, []any{"tenant1"}, serde.NewSerializer())
	require.NoError(t, err)
	assert.Equal(t, "https://tenant1.example.com/v", req.URL)
}

func TestBuildRequest_BodyVariants(t *testing.T) {
	tests := []struct {
		name            string
		contentType     string
		param           Param
		arg             any
		wantContentType string
		wantBody        string
		wantStream      bool
		wantNoBody      bool
	}{
		{
			name:            "given nil body, then content-length zero",
			param:           BodyParam(),
			arg:             nil,
			wantContentType: "",
			wantNoBody:      true,
		},
		{
			name:            "given byte body, then octet-stream inferred",
			param:           BodyParam(),
			arg:             []byte("raw"),
			wantContentType: "application/octet-stream",
			wantBody:        "raw",
		},
		{
			name:            "given text body, then octet-stream inferred and attached raw",
			param:           BodyParam(),
			arg:             "text-payload",
			wantContentType: "application/octet-stream",
			wantBody:        "text-payload",
		},
		{
			name:            "given struct body, then json inferred",
			param:           BodyParam(),
			arg:             map[string]string{"k": "v"},
			wantContentType: "application/json",
			wantBody:        `{"k":"v"}`,
		},
		{
			name:            "given explicit json content type with string arg, then serialized as json",
			contentType:     "application/json; charset=utf-8",
			param:           BodyParam(),
			arg:             "quoted",
			wantContentType: "application/json; charset=utf-8",
			wantBody:        `"quoted"`,
		},
		{
			name:            "given declared stream body, then attached unchanged",
			param:           StreamBodyParam(),
			arg:             io.NopCloser(strings.NewReader("streamed")),
			contentType:     "application/octet-stream",
			wantContentType: "application/octet-stream",
			wantStream:      true,
		},
		{
			name:            "given form content type with map, then form encoded",
			contentType:     "application/x-www-form-urlencoded",
			param:           BodyParam(),
			arg:             map[string]string{"user": "john"},
			wantContentType: "application/x-www-form-urlencoded",
			wantBody:        "user=john",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := mustPlan(t, "host", "https", Operation{
				Name:           "Op",
				Method:         http.MethodPost,
				Path:           "/x",
				Params:         []Param{tt.param},
				ExpectedStatus: []int{200},
				ContentType:    tt.contentType,
			})

			req, err := buildRequest(plan, []any{tt.arg}, serde.NewSerializer())
			require.NoError(t, err)

			if tt.wantNoBody {
				assert.Equal(t, "0", req.Headers.Get("Content-Length"))
				assert.False(t, req.HasBody())
				return
			}

			assert.Equal(t, tt.wantContentType, req.Headers.Get("Content-Type"))
			if tt.wantStream {
				_, hasBytes := req.BodyBytes()
				assert.False(t, hasBytes)
				data, err := io.ReadAll(req.BodyReader())
				require.NoError(t, err)
				assert.Equal(t, "streamed", string(data))
				return
			}
			body, ok := req.BodyBytes()
			require.True(t, ok)
			if strings.HasPrefix(tt.wantBody, "{") {
				assert.JSONEq(t, tt.wantBody, string(body))
			} else {
				assert.Equal(t, tt.wantBody, string(body))
			}
		})
	}
}

func TestBuildRequest_HeaderMapExpansion(t *testing.T) {
	plan := mustPlan(t, "host", "https", Operation{
		Name:           "SetMeta",
		Method:         http.MethodPut,
		Path:           "/meta",
		Params:         []Param{HeaderMapParam("x-ms-meta-")},
		ExpectedStatus: []int{200},
	})

	req, err := buildRequest(plan, []any{map[string]string{"owner": "ops", "tier": "gold"}}, serde.NewSerializer())
	require.NoError(t, err)

	assert.Equal(t, "ops", req.Headers.Get("x-ms-meta-owner"))
	assert.Equal(t, "gold", req.Headers.Get("x-ms-meta-tier"))
}

func TestBuildRequest_ArgumentCountMismatch(t *testing.T) {
	plan := mustPlan(t, "host", "https", Operation{
		Name:           "GetItem",
		Method:         http.MethodGet,
		Path:           "/items/{id}",
		Params:         []Param{PathParam("id")},
		ExpectedStatus: []int{200},
	})

	_, err := buildRequest(plan, nil, serde.NewSerializer())
	assert.ErrorContains(t, err, "arguments")
}

func TestBuildRequest_FramingConflictRejected(t *testing.T) {
	plan := mustPlan(t, "host", "https", Operation{
		Name:           "Send",
		Method:         http.MethodPost,
		Path:           "/x",
		Params:         []Param{HeaderParam("Content-Length"), HeaderParam("Transfer-Encoding")},
		ExpectedStatus: []int{200},
	})

	_, err := buildRequest(plan, []any{"10", "chunked"}, serde.NewSerializer())
	assert.ErrorIs(t, err, ErrBadDescription)
}
