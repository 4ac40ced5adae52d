package pipeline

import (
	"time"

	"github.com/rs/zerolog"
)

// LoggingPolicy logs one line per request and response using zerolog.
type LoggingPolicy struct {
	logger *zerolog.Logger
}

// NewLoggingPolicy creates a LoggingPolicy. With a nil logger the pipeline
// logger (see WithLogger) is used.
func NewLoggingPolicy(logger *zerolog.Logger) *LoggingPolicy {
	return &LoggingPolicy{logger: logger}
}

// Do implements Policy.
func (p *LoggingPolicy) Do(cc *CallContext, next *Next) (*Response, error) {
	log := cc.Options().Logger()
	if p.logger != nil {
		log = *p.logger
	}

	req := cc.Request()
	log.Debug().
		Str("method", req.Method).
		Str("url", req.URL).
		Msg("HTTP request")

	start := time.Now()
	resp, err := next.Do()
	duration := time.Since(start)

	if err != nil {
		log.Debug().
			Err(err).
			Dur("duration_ms", duration).
			Msg("HTTP request failed")
		return resp, err
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Dur("duration_ms", duration).
		Msg("HTTP response")
	return resp, nil
}
