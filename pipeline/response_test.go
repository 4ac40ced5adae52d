package pipeline

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResponse(status int, body string, headers map[string]string) *Response {
	h := NewHeaders()
	for k, v := range headers {
		h.Set(k, v)
	}
	return NewResponse(status, h, nil, io.NopCloser(bytes.NewBufferString(body)))
}

func TestResponse_BodyConsumedOnce(t *testing.T) {
	resp := newTestResponse(200, "payload", nil)

	first := resp.Body()
	data, err := io.ReadAll(first)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	second := resp.Body()
	_, err = io.ReadAll(second)
	assert.ErrorIs(t, err, ErrBodyConsumed)
}

func TestResponse_BytesAfterStreamFails(t *testing.T) {
	resp := newTestResponse(200, "payload", nil)
	_ = resp.Body()

	_, err := resp.Bytes()
	assert.ErrorIs(t, err, ErrBodyConsumed)
}

func TestResponse_BytesMemoized(t *testing.T) {
	resp := newTestResponse(200, "payload", nil)

	first, err := resp.Bytes()
	require.NoError(t, err)
	second, err := resp.Bytes()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestResponse_BufferReplays(t *testing.T) {
	resp := newTestResponse(200, "payload", nil)
	require.NoError(t, resp.Buffer())

	for range 3 {
		data, err := io.ReadAll(resp.Body())
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))
	}
}

func TestResponse_Text(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		headers map[string]string
		want    string
	}{
		{
			name: "given no charset, then utf-8 assumed",
			body: "héllo",
			want: "héllo",
		},
		{
			name:    "given explicit utf-8 charset, then text returned",
			body:    "plain",
			headers: map[string]string{"Content-Type": "text/plain; charset=utf-8"},
			want:    "plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := newTestResponse(200, tt.body, tt.headers)
			got, err := resp.Text()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResponse_DrainThenReadFails(t *testing.T) {
	resp := newTestResponse(200, "payload", nil)
	require.NoError(t, resp.Drain())

	_, err := resp.Bytes()
	assert.ErrorIs(t, err, ErrBodyConsumed)
	assert.True(t, resp.Consumed())
}

func TestResponse_NilBody(t *testing.T) {
	resp := NewResponse(204, NewHeaders(), nil, nil)

	data, err := resp.Bytes()
	require.NoError(t, err)
	assert.Empty(t, data)
}
