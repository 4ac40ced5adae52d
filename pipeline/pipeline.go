package pipeline

import (
	"context"
	"sync/atomic"
)

// Policy is one unit of pipeline middleware. A policy receives the per-call
// context and a single-use handle to the remainder of the chain. It may
// return a response without calling next (short-circuit), transform the
// response on the way out, or mint fresh handles via Next.Clone to retry.
//
// Policies are immutable values shared across calls; per-call state belongs
// in the CallContext.
type Policy interface {
	Do(cc *CallContext, next *Next) (*Response, error)
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(cc *CallContext, next *Next) (*Response, error)

// Do implements Policy.
func (f PolicyFunc) Do(cc *CallContext, next *Next) (*Response, error) {
	return f(cc, next)
}

// Next is a single-use handle invoking the remainder of the chain from a
// fixed position. Calling Do a second time on the same handle fails with
// ErrNextConsumed; Clone mints a fresh handle at the same position.
type Next struct {
	pipe  *Pipeline
	cc    *CallContext
	index int
	used  atomic.Bool
}

// Do invokes the rest of the chain: the policy at this handle's position, or
// the terminal transport once the policies are exhausted.
func (n *Next) Do() (*Response, error) {
	if !n.used.CompareAndSwap(false, true) {
		return nil, ErrNextConsumed
	}
	if err := n.cc.Context().Err(); err != nil {
		return nil, err
	}
	if n.index >= len(n.pipe.policies) {
		return n.pipe.transport.Send(n.cc.Context(), n.cc.Request())
	}
	policy := n.pipe.policies[n.index]
	return policy.Do(n.cc, &Next{pipe: n.pipe, cc: n.cc, index: n.index + 1})
}

// Clone returns a fresh unused handle at the same chain position. Retrying
// policies consume one clone per attempt.
func (n *Next) Clone() *Next {
	return &Next{pipe: n.pipe, cc: n.cc, index: n.index}
}

// Pipeline is an immutable ordered list of policies terminated by a
// Transport. A Pipeline is safe for concurrent use; each call owns its
// request, context, and response body.
type Pipeline struct {
	transport Transport
	policies  []Policy
	opts      *Options
}

// New creates a pipeline around the given terminal transport.
//
//	pipe := pipeline.New(pipeline.NewNetTransport(),
//	    pipeline.WithPolicies(
//	        pipeline.NewUserAgentPolicy("svc/1.0"),
//	        pipeline.NewRetryPolicy(pipeline.DefaultRetryConfig()),
//	    ),
//	)
func New(transport Transport, opts ...Option) *Pipeline {
	o := newOptions(opts...)
	return &Pipeline{
		transport: transport,
		policies:  o.policies,
		opts:      o,
	}
}

// Policies returns the policy chain in execution order.
func (p *Pipeline) Policies() []Policy {
	return append([]Policy(nil), p.policies...)
}

// Transport returns the terminal transport.
func (p *Pipeline) Transport() Transport { return p.transport }

// NewContext creates a per-call context for the given request with optional
// caller-supplied data.
func (p *Pipeline) NewContext(ctx context.Context, req *Request, data map[string]any) *CallContext {
	cc := &CallContext{ctx: ctx, request: req, opts: p.opts}
	for k, v := range data {
		cc.SetData(k, v)
	}
	return cc
}

// Send wraps the request in a fresh call context and runs it through the
// chain. No work happens before Send is called; the call is driven to
// completion or until ctx is cancelled.
func (p *Pipeline) Send(ctx context.Context, req *Request) (*Response, error) {
	return p.Do(p.NewContext(ctx, req, nil))
}

// Do runs a prepared call context through the chain.
func (p *Pipeline) Do(cc *CallContext) (*Response, error) {
	head := &Next{pipe: p, cc: cc, index: 0}
	return head.Do()
}
