package internal

import (
	"net/http"
	"strings"
)

// DefaultAPIPrefix marks paths reserved for machine clients.
const DefaultAPIPrefix = "/api/"

// IsAPIRequest reports whether r expects a JSON response rather than HTML.
// Guard denials, dispatch errors and the Success/Fail helpers all decide
// their response shape with this predicate. An empty apiPrefix means
// DefaultAPIPrefix.
func IsAPIRequest(r *http.Request, apiPrefix string) bool {
	if strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") {
		return true
	}

	if strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return true
	}

	accept := strings.ToLower(r.Header.Get("Accept"))
	if strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html") {
		return true
	}

	if apiPrefix == "" {
		apiPrefix = DefaultAPIPrefix
	}
	return r.URL != nil && strings.Contains(r.URL.Path, apiPrefix)
}
