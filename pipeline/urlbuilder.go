package pipeline

import (
	"net/url"
	"strings"
)

// URLBuilder assembles a request URL from scheme, host, path, and query
// fragments. Values passed to SetQuery must already be percent-encoded;
// WithPath keeps the path verbatim so that callers control encoding of
// substituted segments.
//
// Building then parsing a URL is idempotent for well-formed inputs.
type URLBuilder struct {
	scheme string
	host   string
	path   string
	query  []queryParam
}

type queryParam struct {
	name  string
	value string
}

// ParseURL splits a URL string into a builder. The input may be a full
// absolute URL, a host with optional path, or a bare path.
func ParseURL(raw string) *URLBuilder {
	b := &URLBuilder{}
	rest := raw

	if i := strings.Index(rest, "://"); i >= 0 {
		b.scheme = rest[:i]
		rest = rest[i+3:]
	}

	if i := strings.Index(rest, "?"); i >= 0 {
		for _, pair := range strings.Split(rest[i+1:], "&") {
			if pair == "" {
				continue
			}
			name, value, _ := strings.Cut(pair, "=")
			b.query = append(b.query, queryParam{name: name, value: value})
		}
		rest = rest[:i]
	}

	if b.scheme != "" {
		if i := strings.Index(rest, "/"); i >= 0 {
			b.host = rest[:i]
			b.path = rest[i:]
		} else {
			b.host = rest
		}
	} else {
		// No scheme: treat a leading slash as path-only, otherwise the
		// fragment up to the first slash is the host.
		if strings.HasPrefix(rest, "/") {
			b.path = rest
		} else if i := strings.Index(rest, "/"); i >= 0 {
			b.host = rest[:i]
			b.path = rest[i:]
		} else {
			b.host = rest
		}
	}
	return b
}

// Scheme returns the scheme, or "" if none was set.
func (b *URLBuilder) Scheme() string { return b.scheme }

// Host returns the host (with optional port), or "".
func (b *URLBuilder) Host() string { return b.host }

// Path returns the path, or "".
func (b *URLBuilder) Path() string { return b.path }

// WithScheme sets the scheme.
func (b *URLBuilder) WithScheme(scheme string) *URLBuilder {
	b.scheme = scheme
	return b
}

// WithHost sets the host. A host containing "://" or a path suffix is split
// into its parts first.
func (b *URLBuilder) WithHost(host string) *URLBuilder {
	if strings.Contains(host, "://") || strings.Contains(host, "/") {
		parsed := ParseURL(host)
		if parsed.scheme != "" {
			b.scheme = parsed.scheme
		}
		b.host = parsed.host
		if parsed.path != "" {
			b.path = parsed.path
		}
		return b
	}
	b.host = host
	return b
}

// WithPath sets the path verbatim.
func (b *URLBuilder) WithPath(path string) *URLBuilder {
	b.path = path
	return b
}

// SetQuery sets a query parameter, replacing any previous value for the same
// name while keeping its original position. The value must already be
// percent-encoded.
func (b *URLBuilder) SetQuery(name, encodedValue string) *URLBuilder {
	for i := range b.query {
		if b.query[i].name == name {
			b.query[i].value = encodedValue
			return b
		}
	}
	b.query = append(b.query, queryParam{name: name, value: encodedValue})
	return b
}

// String assembles the URL.
func (b *URLBuilder) String() string {
	var sb strings.Builder
	if b.scheme != "" {
		sb.WriteString(b.scheme)
		sb.WriteString("://")
	}
	sb.WriteString(b.host)
	if b.path != "" {
		if b.host != "" && !strings.HasPrefix(b.path, "/") {
			sb.WriteString("/")
		}
		sb.WriteString(b.path)
	}
	for i, q := range b.query {
		if i == 0 {
			sb.WriteString("?")
		} else {
			sb.WriteString("&")
		}
		sb.WriteString(q.name)
		if q.value != "" {
			sb.WriteString("=")
			sb.WriteString(q.value)
		}
	}
	return sb.String()
}

// URL parses the assembled string with net/url, validating the result.
func (b *URLBuilder) URL() (*url.URL, error) {
	return url.Parse(b.String())
}
