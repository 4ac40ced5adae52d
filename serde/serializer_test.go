package serde

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHeaders map[string]string

func (f fakeHeaders) Get(name string) string { return f[name] }

func TestEncodingFromHeaders(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		want        Encoding
		wantErr     bool
	}{
		{name: "given no content type, then json default", contentType: "", want: EncodingJSON},
		{name: "given application/json, then json", contentType: "application/json", want: EncodingJSON},
		{name: "given json with charset, then json", contentType: "application/json; charset=utf-8", want: EncodingJSON},
		{name: "given json with suffix, then json", contentType: "application/merge-patch+json", want: EncodingJSON},
		{name: "given mixed case json, then json", contentType: "Application/JSON", want: EncodingJSON},
		{name: "given application/xml, then xml", contentType: "application/xml", want: EncodingXML},
		{name: "given text/xml, then xml", contentType: "text/xml", want: EncodingXML},
		{name: "given form encoding, then form", contentType: "application/x-www-form-urlencoded", want: EncodingForm},
		{name: "given text/plain, then text", contentType: "text/plain; charset=utf-8", want: EncodingText},
		{name: "given unknown type, then unsupported", contentType: "application/grpc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := fakeHeaders{}
			if tt.contentType != "" {
				h["Content-Type"] = tt.contentType
			}
			got, err := EncodingFromHeaders(h)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedEncoding)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsJSONContentType(t *testing.T) {
	assert.True(t, IsJSONContentType("application/json"))
	assert.True(t, IsJSONContentType("Application/JSON; charset=utf-8"))
	assert.True(t, IsJSONContentType("text/plain; application/json"))
	assert.False(t, IsJSONContentType("application/xml"))
	assert.False(t, IsJSONContentType(""))
}

type widget struct {
	Name  string `json:"name" xml:"name" schema:"name"`
	Count int    `json:"count" xml:"count" schema:"count"`
}

func TestDefaultSerializer_JSONRoundTrip(t *testing.T) {
	s := NewSerializer()
	in := widget{Name: "bolt", Count: 7}

	data, err := s.Marshal(in, EncodingJSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"bolt","count":7}`, string(data))

	var out widget
	require.NoError(t, s.Unmarshal(data, &out, EncodingJSON))
	assert.Equal(t, in, out)
}

func TestDefaultSerializer_XMLRoundTrip(t *testing.T) {
	s := NewSerializer()
	in := widget{Name: "nut", Count: 3}

	data, err := s.Marshal(in, EncodingXML)
	require.NoError(t, err)

	var out widget
	require.NoError(t, s.Unmarshal(data, &out, EncodingXML))
	assert.Equal(t, in, out)
}

func TestDefaultSerializer_Form(t *testing.T) {
	s := NewSerializer()

	data, err := s.Marshal(map[string]string{"user": "john", "scope": "read"}, EncodingForm)
	require.NoError(t, err)

	values, err := url.ParseQuery(string(data))
	require.NoError(t, err)
	assert.Equal(t, "john", values.Get("user"))
	assert.Equal(t, "read", values.Get("scope"))

	var out map[string]string
	require.NoError(t, s.Unmarshal(data, &out, EncodingForm))
	assert.Equal(t, map[string]string{"user": "john", "scope": "read"}, out)
}

func TestDefaultSerializer_Text(t *testing.T) {
	s := NewSerializer()

	data, err := s.Marshal("hello", EncodingText)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	var out string
	require.NoError(t, s.Unmarshal([]byte("world"), &out, EncodingText))
	assert.Equal(t, "world", out)

	_, err = s.Marshal(struct{}{}, EncodingText)
	assert.ErrorIs(t, err, ErrUnsupportedEncoding)
}
