package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// OriginChecker returns a function suitable for websocket.Upgrader.CheckOrigin.
// An empty list, or one containing "*", allows every origin. Requests without
// an Origin header (non-browser clients) are always allowed.
func OriginChecker(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowedOrigins) == 0 {
			return true
		}
		return isOriginAllowed(origin, allowedOrigins)
	}
}

// isOriginAllowed checks if an origin is in the allowed list. Entries may be
// full origins ("https://app.example.com") or wildcard hosts
// ("*.example.com").
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	host := ""
	if u, err := url.Parse(origin); err == nil {
		host = u.Hostname()
	}

	for _, allowed := range allowedOrigins {
		switch {
		case allowed == "*":
			return true
		case strings.EqualFold(allowed, origin):
			return true
		case strings.HasPrefix(allowed, "*.") && host != "":
			suffix := strings.ToLower(allowed[1:])
			if strings.HasSuffix(strings.ToLower(host), suffix) {
				return true
			}
		}
	}
	return false
}
