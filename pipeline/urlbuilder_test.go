package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURLBuilder_ParseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "given absolute url, then round trip is identity", raw: "https://example.com/items/abc"},
		{name: "given url with query, then round trip is identity", raw: "https://other/host/page2?x=1"},
		{name: "given url with port, then round trip is identity", raw: "http://localhost:8080/health"},
		{name: "given multiple query params, then order is preserved", raw: "https://example.com/q?b=2&a=1"},
		{name: "given bare host, then round trip is identity", raw: "example.com"},
		{name: "given bare path, then round trip is identity", raw: "/items/abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.raw, ParseURL(tt.raw).String())
		})
	}
}

func TestURLBuilder_Assemble(t *testing.T) {
	b := (&URLBuilder{}).
		WithScheme("https").
		WithHost("api.example.com").
		WithPath("/items/abc")
	b.SetQuery("filter", "active")
	b.SetQuery("limit", "10")

	assert.Equal(t, "https://api.example.com/items/abc?filter=active&limit=10", b.String())
}

func TestURLBuilder_SetQueryOverrides(t *testing.T) {
	b := ParseURL("https://example.com/q?a=1&b=2")
	b.SetQuery("a", "override")

	assert.Equal(t, "https://example.com/q?a=override&b=2", b.String())
}

func TestURLBuilder_HostWithScheme(t *testing.T) {
	b := (&URLBuilder{}).WithPath("/v1/ping").WithScheme("https")
	b.WithHost("http://internal.example.com")

	// A scheme carried by the host template wins over the default.
	assert.Equal(t, "http://internal.example.com/v1/ping", b.String())
}

func TestURLBuilder_PathSlashInsertion(t *testing.T) {
	b := (&URLBuilder{}).
		WithScheme("https").
		WithHost("example.com").
		WithPath("items")

	assert.Equal(t, "https://example.com/items", b.String())
}
