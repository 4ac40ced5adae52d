package pipeline

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerClassifier decides whether an attempt outcome counts as a failure
// toward tripping the circuit.
type BreakerClassifier func(resp *Response, err error) bool

// DefaultBreakerClassifier counts transport errors and 5xx responses as
// failures.
func DefaultBreakerClassifier(resp *Response, err error) bool {
	if err != nil {
		return true
	}
	return resp != nil && resp.StatusCode >= 500
}

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	// Name identifies the breaker in state change callbacks. Default:
	// "conduit-pipeline".
	Name string

	// MaxRequests is the number of probe requests allowed while half-open.
	// Default: 1.
	MaxRequests uint32

	// Interval is the cyclic period over which closed-state counts are
	// cleared. Default: 10s.
	Interval time.Duration

	// Timeout is the open-state duration before probing resumes.
	// Default: 10s.
	Timeout time.Duration

	// ConsecutiveFailures trips the circuit after this many sequential
	// failures. Default: 5.
	ConsecutiveFailures uint32

	// Classifier decides which outcomes count as failures.
	// Default: DefaultBreakerClassifier.
	Classifier BreakerClassifier

	// OnStateChange is invoked when the breaker changes state.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerConfig returns safe local-breaker defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:                "conduit-pipeline",
		MaxRequests:         1,
		Interval:            10 * time.Second,
		Timeout:             10 * time.Second,
		ConsecutiveFailures: 5,
		Classifier:          DefaultBreakerClassifier,
	}
}

// errBreakerFailure signals the breaker that a request failed even though
// the chain returned a response. It never escapes to the caller.
var errBreakerFailure = errors.New("breaker: classified failure")

// BreakerPolicy wraps the remainder of the chain in a circuit breaker.
// While the circuit is open, calls fail fast with gobreaker.ErrOpenState
// without touching the network.
type BreakerPolicy struct {
	breaker    *gobreaker.CircuitBreaker[*Response]
	classifier BreakerClassifier
}

// NewBreakerPolicy creates a BreakerPolicy. Zero-valued config fields fall
// back to the defaults.
func NewBreakerPolicy(cfg BreakerConfig) *BreakerPolicy {
	if cfg.Name == "" {
		cfg.Name = "conduit-pipeline"
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	classifier := cfg.Classifier
	if classifier == nil {
		classifier = DefaultBreakerClassifier
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: cfg.OnStateChange,
	}

	return &BreakerPolicy{
		breaker:    gobreaker.NewCircuitBreaker[*Response](settings),
		classifier: classifier,
	}
}

// Do implements Policy.
func (p *BreakerPolicy) Do(cc *CallContext, next *Next) (*Response, error) {
	resp, err := p.breaker.Execute(func() (*Response, error) {
		resp, err := next.Do()
		if err != nil {
			return resp, err
		}
		if p.classifier(resp, nil) {
			return resp, errBreakerFailure
		}
		return resp, nil
	})
	if errors.Is(err, errBreakerFailure) {
		// The failure was synthetic; hand the real response back.
		return resp, nil
	}
	return resp, err
}
