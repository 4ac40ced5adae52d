// Package pipeline implements a composable policy chain for outbound HTTP
// calls. A Pipeline is an ordered list of policies terminated by a Transport;
// each policy sees the per-call context and a single-use handle to the
// remainder of the chain, and may short-circuit, retry, or transform both
// request and response.
//
// # Quick Start
//
//	pipe := pipeline.New(pipeline.NewNetTransport(),
//	    pipeline.WithPolicies(
//	        pipeline.NewUserAgentPolicy("my-service/1.0"),
//	        pipeline.NewRequestIDPolicy(),
//	        pipeline.NewRetryPolicy(pipeline.DefaultRetryConfig()),
//	        pipeline.NewCookiePolicy(),
//	    ),
//	)
//
//	req := pipeline.NewRequest(http.MethodGet, "https://api.example.com/items")
//	resp, err := pipe.Send(ctx, req)
//
// # Policies
//
// Built-in policies cover user-agent and request-id injection, cookie
// management, credential signing, retries with exponential backoff, and a
// decoding hook. Supplementary policies add structured logging (zerolog),
// Prometheus metrics, OpenTelemetry tracing, circuit breaking (gobreaker),
// and client-side rate limiting.
//
// Policies are immutable values shared across calls; per-call state belongs
// in the CallContext. Concurrent calls on the same Pipeline are independent.
//
// # Ordering and cancellation
//
// Within one call, policies run strictly in declared order on the way in and
// observe the response in reverse order on the way out. Cancelling the
// caller's context wakes pending retry sleeps, aborts the transport, and
// stops further attempts.
package pipeline
