package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	json "github.com/goccy/go-json"
)

// RetryConfig holds the retry behavior configuration.
// Use DefaultRetryConfig() for balanced defaults, then modify as needed.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts. The initial
	// attempt is not counted. Default: 3.
	MaxRetries int

	// InitialDelay is the first backoff interval. Default: 10ms.
	InitialDelay time.Duration

	// MaxDelay caps the backoff interval. Default: 10s.
	MaxDelay time.Duration

	// Multiplier controls exponential growth. Default: 2.0.
	Multiplier float64

	// JitterFactor adds up to JitterFactor x interval of random delay on
	// top of each interval (0.0-1.0). Jitter is additive so the delay
	// sequence stays monotonic and never dips below InitialDelay.
	// Default: 1.0.
	JitterFactor float64

	// Credentials, when set, enables transparent re-authentication: a 401
	// response carrying an expired-token challenge triggers a credential
	// refresh and a retry that does not count against MaxRetries.
	Credentials Credentials
}

// Default values for RetryConfig.
const (
	// DefaultMaxRetries is the default number of retry attempts.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default starting backoff interval.
	DefaultRetryDelay = 10 * time.Millisecond

	// DefaultMaxRetryDelay is the default backoff interval cap.
	DefaultMaxRetryDelay = 10 * time.Second
)

// DefaultRetryConfig returns balanced defaults: 3 retries starting at 10ms
// with exponential growth and full jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   DefaultMaxRetries,
		InitialDelay: DefaultRetryDelay,
		MaxDelay:     DefaultMaxRetryDelay,
		Multiplier:   2.0,
		JitterFactor: 1.0,
	}
}

// RetryPolicy retries the remainder of the chain when the transport fails or
// the response status is retriable (408, 429, and 5xx except 501 and 505).
// Between attempts the response body is drained and the policy sleeps with
// exponential backoff, honouring Retry-After when the server supplies one.
//
// Each attempt re-enters the chain through a fresh Next handle; the per-call
// context is preserved across attempts.
type RetryPolicy struct {
	cfg RetryConfig
}

// NewRetryPolicy creates a RetryPolicy. Zero-valued config fields fall back
// to the defaults.
func NewRetryPolicy(cfg RetryConfig) *RetryPolicy {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultRetryDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxRetryDelay
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}
	if cfg.JitterFactor <= 0 {
		cfg.JitterFactor = 1.0
	}
	return &RetryPolicy{cfg: cfg}
}

// Do implements Policy.
func (p *RetryPolicy) Do(cc *CallContext, next *Next) (*Response, error) {
	// Randomization is applied additively below; the backoff itself stays
	// deterministic so consecutive delays never shrink.
	bo := &backoff.ExponentialBackOff{
		InitialInterval:     p.cfg.InitialDelay,
		RandomizationFactor: 0,
		Multiplier:          p.cfg.Multiplier,
		MaxInterval:         p.cfg.MaxDelay,
	}
	bo.Reset()

	log := cc.Options().Logger()
	attempt := 0
	var prevDelay time.Duration
	handle := next
	for {
		resp, err := handle.Do()

		if err == nil && p.cfg.Credentials != nil && resp.StatusCode == http.StatusUnauthorized {
			expired, berr := isExpiredTokenChallenge(resp)
			if berr == nil && expired {
				if rerr := p.cfg.Credentials.Refresh(cc.Context()); rerr != nil {
					return resp, nil
				}
				// Refresh retries do not count against MaxRetries.
				if derr := resp.Drain(); derr != nil {
					log.Debug().Err(derr).Msg("drain before re-auth retry")
				}
				handle = next.Clone()
				continue
			}
		}

		if !isRetriable(resp, err) || attempt >= p.cfg.MaxRetries {
			return resp, err
		}

		attempt++
		delay := applyJitter(bo.NextBackOff(), p.cfg.JitterFactor)
		if delay < prevDelay {
			// Jitter at the MaxDelay cap could otherwise shrink the delay.
			delay = prevDelay
		}
		prevDelay = delay
		if resp != nil {
			if after, ok := retryAfter(resp.Headers); ok {
				delay = after
			}
			if derr := resp.Drain(); derr != nil {
				log.Debug().Err(derr).Msg("drain before retry")
			}
		}

		log.Debug().
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("retrying request")

		if err := sleep(cc.Context(), delay); err != nil {
			return nil, err
		}
		handle = next.Clone()
	}
}

// isRetriable reports whether the attempt outcome warrants another try.
func isRetriable(resp *Response, err error) bool {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		var te *TransportError
		return errors.As(err, &te)
	}
	if resp == nil {
		return false
	}
	return isRetriableStatusCode(resp.StatusCode)
}

// isRetriableStatusCode returns true for status codes that indicate
// transient failures.
func isRetriableStatusCode(statusCode int) bool {
	switch {
	case statusCode == http.StatusRequestTimeout: // 408
		return true
	case statusCode == http.StatusTooManyRequests: // 429
		return true
	case statusCode == http.StatusNotImplemented: // 501
		return false
	case statusCode == http.StatusHTTPVersionNotSupported: // 505
		return false
	case statusCode >= 500 && statusCode <= 599:
		return true
	default:
		return false
	}
}

// retryAfter extracts a Retry-After delay, either delta-seconds or an HTTP
// date.
func retryAfter(h *Headers) (time.Duration, bool) {
	v := h.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}

// applyJitter adds up to jitterFactor x interval of random delay.
//
//nolint:gosec // intentional weak rand for jitter (not cryptographic)
func applyJitter(interval time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 || interval <= 0 {
		return interval
	}
	if jitterFactor > 1 {
		jitterFactor = 1
	}
	span := int64(float64(interval) * jitterFactor)
	if span <= 0 {
		return interval
	}
	return interval + time.Duration(rand.Int64N(span))
}

// sleep waits for the given duration or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// expiredTokenPrefixes are the service error message prefixes signalling
// that the access token must be refreshed. Prefix matching is preserved for
// compatibility with existing services.
var expiredTokenPrefixes = []string{
	"The access token expiry",
	"The access token is missing or invalid",
}

type challengeBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// isExpiredTokenChallenge inspects a 401 response body for the
// AuthenticationFailed error code with an expired-token message. The body is
// buffered so later consumers can still read it.
func isExpiredTokenChallenge(resp *Response) (bool, error) {
	if err := resp.Buffer(); err != nil {
		return false, err
	}
	b, err := resp.Bytes()
	if err != nil || len(b) == 0 {
		return false, err
	}
	var body challengeBody
	if err := json.Unmarshal(b, &body); err != nil {
		return false, nil
	}
	code, message := body.Code, body.Message
	if body.Error != nil {
		code, message = body.Error.Code, body.Error.Message
	}
	if !strings.EqualFold(code, "AuthenticationFailed") {
		return false, nil
	}
	for _, prefix := range expiredTokenPrefixes {
		if strings.HasPrefix(message, prefix) {
			return true, nil
		}
	}
	return false, nil
}
