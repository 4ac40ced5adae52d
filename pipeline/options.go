package pipeline

import (
	"os"

	"github.com/rs/zerolog"
)

// Options holds pipeline-wide configuration shared by all calls. Options are
// immutable once the pipeline is constructed.
type Options struct {
	policies []Policy
	logger   zerolog.Logger
	data     map[string]any
}

// Logger returns the pipeline logger.
func (o *Options) Logger() zerolog.Logger { return o.logger }

// SharedData returns the value stored under key at construction time.
func (o *Options) SharedData(key string) (any, bool) {
	v, ok := o.data[key]
	return v, ok
}

// Option configures a Pipeline.
type Option func(*Options)

// WithPolicies sets the policy chain in execution order.
func WithPolicies(policies ...Policy) Option {
	return func(o *Options) {
		o.policies = append(o.policies, policies...)
	}
}

// WithLogger sets the pipeline logger used by LoggingPolicy and for
// diagnostics. Defaults to a disabled logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}

// WithSharedData stores a value visible to every call via
// Options.SharedData.
func WithSharedData(key string, value any) Option {
	return func(o *Options) {
		if o.data == nil {
			o.data = make(map[string]any)
		}
		o.data[key] = value
	}
}

func newOptions(opts ...Option) *Options {
	o := &Options{
		logger: zerolog.New(os.Stderr).Level(zerolog.Disabled),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
