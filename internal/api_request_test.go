package internal_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/waypoint/internal"
)

func TestIsAPIRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		headers map[string]string
		prefix  string
		want    bool
	}{
		{name: "plain browser request", path: "/dashboard", headers: map[string]string{"Accept": "text/html,application/xhtml+xml"}},
		{name: "ajax marker", path: "/dashboard", headers: map[string]string{"X-Requested-With": "XMLHttpRequest"}, want: true},
		{name: "ajax marker any case", path: "/dashboard", headers: map[string]string{"X-Requested-With": "xmlhttprequest"}, want: true},
		{name: "json content type", path: "/login", headers: map[string]string{"Content-Type": "application/json; charset=utf-8"}, want: true},
		{name: "json accept", path: "/login", headers: map[string]string{"Accept": "application/json"}, want: true},
		{name: "json accept with html", path: "/login", headers: map[string]string{"Accept": "text/html, application/json"}},
		{name: "api path", path: "/api/me", want: true},
		{name: "nested api path", path: "/v1/api/me", want: true},
		{name: "api without trailing slash", path: "/api"},
		{name: "custom prefix", path: "/rpc/me", prefix: "/rpc/", want: true},
		{name: "custom prefix ignores default", path: "/api/me", prefix: "/rpc/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			require.Equal(t, tt.want, internal.IsAPIRequest(r, tt.prefix))
		})
	}
}
