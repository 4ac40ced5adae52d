package pipeline

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func retryPipe(mock *MockTransport, cfg RetryConfig) *Pipeline {
	return New(mock, WithPolicies(NewRetryPolicy(cfg)))
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

func TestRetryPolicy_RoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		mockFn    func(*MockTransport)
		cfg       RetryConfig
		wantErr   assert.ErrorAssertionFunc
		wantSC    int
		wantCalls int
	}{
		{
			name: "given successful first attempt, then no retry",
			mockFn: func(m *MockTransport) {
				m.StubResponse(200, "ok")
			},
			cfg:       fastRetryConfig(),
			wantErr:   assert.NoError,
			wantSC:    200,
			wantCalls: 1,
		},
		{
			name: "given 503 then 200, then retry succeeds",
			mockFn: func(m *MockTransport) {
				m.EnqueueResponse(503, "unavailable")
				m.EnqueueResponse(200, "ok")
			},
			cfg:       fastRetryConfig(),
			wantErr:   assert.NoError,
			wantSC:    200,
			wantCalls: 2,
		},
		{
			name: "given transport errors then success, then retry succeeds",
			mockFn: func(m *MockTransport) {
				m.EnqueueError(&TransportError{Kind: TransportConnection, Err: errors.New("connection reset")})
				m.EnqueueResponse(200, "ok")
			},
			cfg:       fastRetryConfig(),
			wantErr:   assert.NoError,
			wantSC:    200,
			wantCalls: 2,
		},
		{
			name: "given retries exhausted, then last response returned",
			mockFn: func(m *MockTransport) {
				m.StubResponse(503, "unavailable")
			},
			cfg:       fastRetryConfig(),
			wantErr:   assert.NoError,
			wantSC:    503,
			wantCalls: 4, // initial attempt + 3 retries
		},
		{
			name: "given non-retriable 404, then no retry",
			mockFn: func(m *MockTransport) {
				m.StubResponse(404, "missing")
			},
			cfg:       fastRetryConfig(),
			wantErr:   assert.NoError,
			wantSC:    404,
			wantCalls: 1,
		},
		{
			name: "given 501, then no retry",
			mockFn: func(m *MockTransport) {
				m.StubResponse(501, "not implemented")
			},
			cfg:       fastRetryConfig(),
			wantErr:   assert.NoError,
			wantSC:    501,
			wantCalls: 1,
		},
		{
			name: "given persistent transport error, then error surfaces after bound",
			mockFn: func(m *MockTransport) {
				m.StubError(&TransportError{Kind: TransportTimeout, Err: errors.New("deadline")})
			},
			cfg:       fastRetryConfig(),
			wantErr:   assert.Error,
			wantSC:    0,
			wantCalls: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockTransport()
			tt.mockFn(mock)

			resp, err := retryPipe(mock, tt.cfg).Send(
				context.Background(),
				NewRequest(http.MethodGet, "https://example.com/"),
			)
			tt.wantErr(t, err)
			if tt.wantSC != 0 {
				require.NotNil(t, resp)
				assert.Equal(t, tt.wantSC, resp.StatusCode)
				_ = resp.Drain()
			}
			assert.Equal(t, tt.wantCalls, mock.RequestCount())
		})
	}
}

func TestRetryPolicy_BackoffElapsed(t *testing.T) {
	mock := NewMockTransport()
	mock.EnqueueResponse(503, "unavailable")
	mock.EnqueueResponse(503, "unavailable")
	mock.EnqueueResponse(200, "ok")

	cfg := DefaultRetryConfig() // 10ms initial delay, doubling
	start := time.Now()
	resp, err := retryPipe(mock, cfg).Send(
		context.Background(),
		NewRequest(http.MethodGet, "https://example.com/"),
	)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 3, mock.RequestCount())
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
}

func TestRetryPolicy_RetryAfterHonoured(t *testing.T) {
	mock := NewMockTransport()
	mock.EnqueueResponseWithHeaders(429, map[string]string{"Retry-After": "1"}, "slow down")
	mock.EnqueueResponse(200, "ok")

	start := time.Now()
	resp, err := retryPipe(mock, fastRetryConfig()).Send(
		context.Background(),
		NewRequest(http.MethodGet, "https://example.com/"),
	)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestRetryPolicy_CancelStopsRetries(t *testing.T) {
	mock := NewMockTransport().StubResponse(503, "unavailable")

	cfg := fastRetryConfig()
	cfg.InitialDelay = time.Hour
	cfg.MaxDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := retryPipe(mock, cfg).Send(ctx, NewRequest(http.MethodGet, "https://example.com/"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, mock.RequestCount())
}

type fakeCredentials struct {
	signs     atomic.Int64
	refreshes atomic.Int64
}

func (f *fakeCredentials) Sign(_ context.Context, req *Request) error {
	f.signs.Add(1)
	req.Headers.Set("Authorization", "Bearer token")
	return nil
}

func (f *fakeCredentials) Refresh(context.Context) error {
	f.refreshes.Add(1)
	return nil
}

func TestRetryPolicy_ExpiredTokenRefresh(t *testing.T) {
	const challenge = `{"error":{"code":"AuthenticationFailed","message":"The access token expiry time has passed"}}`

	mock := NewMockTransport()
	mock.EnqueueResponse(401, challenge)
	mock.EnqueueResponse(200, "ok")

	creds := &fakeCredentials{}
	cfg := fastRetryConfig()
	cfg.MaxRetries = 1 // the refresh retry must not consume this budget
	cfg.Credentials = creds

	pipe := New(mock, WithPolicies(
		NewRetryPolicy(cfg),
		NewCredentialsPolicy(creds),
	))

	resp, err := pipe.Send(context.Background(), NewRequest(http.MethodGet, "https://example.com/"))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, int64(1), creds.refreshes.Load())
	assert.Equal(t, int64(2), creds.signs.Load())
	assert.Equal(t, 2, mock.RequestCount())
}

func TestRetryPolicy_Plain401NotRefreshed(t *testing.T) {
	mock := NewMockTransport().StubResponse(401, `{"error":{"code":"Forbidden","message":"no"}}`)

	creds := &fakeCredentials{}
	cfg := fastRetryConfig()
	cfg.Credentials = creds

	resp, err := retryPipe(mock, cfg).Send(
		context.Background(),
		NewRequest(http.MethodGet, "https://example.com/"),
	)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Zero(t, creds.refreshes.Load())
	assert.Equal(t, 1, mock.RequestCount())
}
