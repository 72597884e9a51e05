package limiter

import (
	"net"
	"net/http"
	"strings"
)

// PrincipalFunc extracts an authenticated-principal id from a request, e.g.
// by reading a session. Returning an empty id or an error means "no
// principal"; a panic is swallowed the same way. Resolution is best effort
// and must never abort rate limiting.
type PrincipalFunc func(r *http.Request) (string, error)

// ResolveIdentifier derives the caller-scoping key for a request with
// deterministic priority: authenticated principal, then forwarded client
// address, then the direct connection address, then "unknown".
func ResolveIdentifier(r *http.Request, principal PrincipalFunc) string {
	if r == nil {
		return "unknown"
	}

	if id := resolvePrincipal(r, principal); id != "" {
		return "user:" + id
	}

	// First X-Forwarded-For entry is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0]); ip != "" {
			return "ip:" + ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return "ip:" + ip
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return "ip:" + host
	}
	if r.RemoteAddr != "" {
		return "ip:" + r.RemoteAddr
	}
	return "unknown"
}

func resolvePrincipal(r *http.Request, principal PrincipalFunc) (id string) {
	if principal == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	id, err := principal(r)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(id)
}
