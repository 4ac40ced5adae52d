package pipeline

// UserAgentPolicy sets the User-Agent header when the request does not carry
// one already.
type UserAgentPolicy struct {
	userAgent string
}

// DefaultUserAgent is used when no user agent string is configured.
const DefaultUserAgent = "conduit-go"

// NewUserAgentPolicy creates a UserAgentPolicy with the given string.
// An empty string falls back to DefaultUserAgent.
func NewUserAgentPolicy(userAgent string) *UserAgentPolicy {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &UserAgentPolicy{userAgent: userAgent}
}

// Do implements Policy.
func (p *UserAgentPolicy) Do(cc *CallContext, next *Next) (*Response, error) {
	if !cc.Request().Headers.Has("User-Agent") {
		cc.Request().Headers.Set("User-Agent", p.userAgent)
	}
	return next.Do()
}
