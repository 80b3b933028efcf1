// Package cors decides whether a cross-origin request's declared Origin is
// permitted. Matching is exact: no suffix or pattern matching is performed
// unless the allow-set contains a literal "*" entry.
package cors

// Policy holds the configured origin allow-set. It is read-only after
// construction and safe for concurrent use.
type Policy struct {
	allowedOrigins []string
}

// New creates a Policy from the configured allow-set.
func New(allowedOrigins []string) Policy {
	return Policy{allowedOrigins: allowedOrigins}
}

// IsAllowed reports whether the given Origin header value is permitted.
// It only answers for an explicitly presented origin; a missing Origin
// header is a same-origin context and is the caller's business, so the
// empty string is never allowed here.
func (p Policy) IsAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	for i := range p.allowedOrigins {
		if origin == p.allowedOrigins[i] || p.allowedOrigins[i] == "*" {
			return true
		}
	}
	return false
}
