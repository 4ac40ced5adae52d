package pipeline

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Credentials signs outbound requests and refreshes its secret material on
// demand. Implementations handle their own caching; Refresh is only called
// when a policy observes an expired-token challenge.
type Credentials interface {
	// Sign mutates the request to carry authentication, typically by
	// setting the Authorization header.
	Sign(ctx context.Context, req *Request) error

	// Refresh re-acquires the secret material behind the credential.
	Refresh(ctx context.Context) error
}

// SharedCredentials wraps a Credentials so that concurrent Refresh calls
// collapse into a single in-flight refresh.
type SharedCredentials struct {
	inner Credentials
	group singleflight.Group
}

// NewSharedCredentials wraps creds with refresh deduplication.
func NewSharedCredentials(creds Credentials) *SharedCredentials {
	return &SharedCredentials{inner: creds}
}

// Sign implements Credentials.
func (s *SharedCredentials) Sign(ctx context.Context, req *Request) error {
	return s.inner.Sign(ctx, req)
}

// Refresh implements Credentials. Concurrent callers share one refresh.
func (s *SharedCredentials) Refresh(ctx context.Context) error {
	_, err, _ := s.group.Do("refresh", func() (any, error) {
		return nil, s.inner.Refresh(ctx)
	})
	return err
}

// CredentialsPolicy signs every request with the injected credential before
// delegating to the rest of the chain.
type CredentialsPolicy struct {
	creds Credentials
}

// NewCredentialsPolicy creates a CredentialsPolicy.
func NewCredentialsPolicy(creds Credentials) *CredentialsPolicy {
	return &CredentialsPolicy{creds: creds}
}

// Do implements Policy.
func (p *CredentialsPolicy) Do(cc *CallContext, next *Next) (*Response, error) {
	if err := p.creds.Sign(cc.Context(), cc.Request()); err != nil {
		return nil, err
	}
	return next.Do()
}
