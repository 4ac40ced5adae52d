package pipeline

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"
)

// CookiePolicy maintains a per-pipeline cookie jar. Matching cookies are
// injected on send and Set-Cookie headers are harvested from every response.
//
// The jar is the only shared mutable state a built-in policy owns; it is
// internally synchronized and safe for concurrent calls.
type CookiePolicy struct {
	jar http.CookieJar
}

// NewCookiePolicy creates a CookiePolicy with a fresh jar using the public
// suffix list for domain matching.
func NewCookiePolicy() *CookiePolicy {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		// cookiejar.New only fails on a nil-method PublicSuffixList.
		panic(err)
	}
	return &CookiePolicy{jar: jar}
}

// Do implements Policy.
func (p *CookiePolicy) Do(cc *CallContext, next *Next) (*Response, error) {
	req := cc.Request()
	u, err := url.Parse(req.URL)
	if err != nil {
		return next.Do()
	}

	for _, c := range p.jar.Cookies(u) {
		req.Headers.Add("Cookie", c.String())
	}

	resp, err := next.Do()
	if err != nil {
		return resp, err
	}

	if setCookies := resp.Headers.Values("Set-Cookie"); len(setCookies) > 0 {
		carrier := &http.Response{Header: http.Header{}}
		for _, v := range setCookies {
			carrier.Header.Add("Set-Cookie", v)
		}
		p.jar.SetCookies(u, carrier.Cookies())
	}
	return resp, nil
}
