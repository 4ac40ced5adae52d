package pipeline

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Transport is the terminal sender of a pipeline. Implementations never
// panic and never fail synchronously; all failures surface as a
// *TransportError from Send. The response body is a lazy chunk stream owned
// by the caller.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// TransportConfig holds connection settings for NetTransport.
// Use DefaultTransportConfig() and modify fields as needed.
type TransportConfig struct {
	// DialTimeout bounds connection establishment. Default: 5s.
	DialTimeout time.Duration

	// MaxIdleConns is the pool-wide idle connection cap. Default: 100.
	MaxIdleConns int

	// MaxIdleConnsPerHost is the per-host idle connection cap. Default: 20.
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long idle connections stay pooled. Default: 90s.
	IdleConnTimeout time.Duration

	// TLSHandshakeTimeout bounds the TLS handshake. Default: 10s.
	TLSHandshakeTimeout time.Duration

	// ResponseHeaderTimeout bounds the wait for response headers after the
	// request is written. Zero means no limit. Default: 0.
	ResponseHeaderTimeout time.Duration
}

// DefaultTransportConfig returns balanced connection settings.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		DialTimeout:         5 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// NetTransport is the default Transport backed by net/http.
type NetTransport struct {
	client *http.Client
}

// NewNetTransport creates a pooled net/http transport with the default
// configuration.
func NewNetTransport() *NetTransport {
	return NewNetTransportWithConfig(DefaultTransportConfig())
}

// NewNetTransportWithConfig creates a pooled net/http transport.
func NewNetTransportWithConfig(cfg TransportConfig) *NetTransport {
	return &NetTransport{
		client: &http.Client{
			// Redirect and cookie behavior belong to policies, not the wire
			// sender.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   cfg.DialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:          cfg.MaxIdleConns,
				MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
				IdleConnTimeout:       cfg.IdleConnTimeout,
				TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
				ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
			},
		},
	}
}

// WrapHTTPClient adapts an existing *http.Client into a Transport.
func WrapHTTPClient(client *http.Client) *NetTransport {
	return &NetTransport{client: client}
}

// Send implements Transport.
func (t *NetTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, req.BodyReader())
	if err != nil {
		return nil, &TransportError{Kind: TransportProtocol, Err: err}
	}
	if body, ok := req.BodyBytes(); ok {
		httpReq.ContentLength = int64(len(body))
	}
	for _, h := range req.Headers.All() {
		for _, v := range h.Values {
			httpReq.Header.Add(h.Name, v)
		}
	}

	httpResp, err := t.client.Do(httpReq) //nolint:bodyclose // ownership transfers to Response
	if err != nil {
		return nil, classifyTransportError(err)
	}

	headers := NewHeaders()
	for name, values := range httpResp.Header {
		for _, v := range values {
			headers.Add(name, v)
		}
	}
	return NewResponse(httpResp.StatusCode, headers, req, httpResp.Body), nil
}

func classifyTransportError(err error) *TransportError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Kind: TransportTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{Kind: TransportTimeout, Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return &TransportError{Kind: TransportConnection, Err: err}
		}
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return &TransportError{Kind: TransportConnection, Err: err}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return &TransportError{Kind: TransportConnection, Err: err}
		}
	}
	return &TransportError{Kind: TransportProtocol, Err: err}
}
