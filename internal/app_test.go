package internal_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/waypoint/internal"
	"github.com/dmitrymomot/waypoint/pkg/identity"
)

type homeController struct{}

func (homeController) Actions() map[string]internal.HandlerFunc {
	return map[string]internal.HandlerFunc{
		"index": func(r *internal.Request, _ ...string) (*internal.Response, error) {
			return internal.Text(http.StatusOK, "home"), nil
		},
		"show": func(r *internal.Request, params ...string) (*internal.Response, error) {
			return internal.Text(http.StatusOK, "page "+params[0]), nil
		},
	}
}

func writeRouteFile(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestApp_New(t *testing.T) {
	t.Parallel()

	routes := writeRouteFile(t, `
- [GET, /, Home.index]
- method: GET
  path: /pages/{slug}
  handler: Home.show
- [GET, /admin, Home.index, [auth, "role:admin"]]
`)

	app, err := internal.New(
		internal.WithRouteFile(routes),
		internal.WithController("Home", homeController{}),
		internal.WithIdentityStore(identity.NewMemoryStore()),
		internal.WithHealthChecks(
			internal.WithReadinessCheck("ok", func(context.Context) error { return nil }),
		),
	)
	require.NoError(t, err)
	require.Equal(t, 3, app.Kernel().Table().Len())

	serve := func(method, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		return rec
	}

	tests := []struct {
		method string
		path   string
		status int
		body   string
	}{
		{http.MethodGet, "/", http.StatusOK, "home"},
		{http.MethodGet, "/pages/about", http.StatusOK, "page about"},
		{http.MethodGet, "/missing", http.StatusNotFound, "404 Not Found"},
		{http.MethodPost, "/", http.StatusMethodNotAllowed, "405 Method Not Allowed"},
		{http.MethodGet, "/admin", http.StatusFound, ""},
		{http.MethodGet, "/health/live", http.StatusOK, "OK"},
		{http.MethodGet, "/health/ready", http.StatusOK, "OK"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			rec := serve(tt.method, tt.path)
			require.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				require.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestApp_NewRejectsMalformedRoutes(t *testing.T) {
	t.Parallel()

	tests := map[string]internal.Option{
		"unknown controller": internal.WithRoutes(internal.RouteDef{Method: "GET", Pattern: "/", Handler: "Nope.index"}),
		"unknown guard":      internal.WithRoutes(internal.RouteDef{Method: "GET", Pattern: "/", Handler: "Home.index", Guard: "verified"}),
		"bad pattern":        internal.WithRoutes(internal.RouteDef{Method: "GET", Pattern: "/x/{id", Handler: "Home.index"}),
		"missing file":       internal.WithRouteFile(filepath.Join(t.TempDir(), "nope.yaml")),
		"not a list":         internal.WithRouteFile(writeRouteFile(t, "method: GET\n")),
		"short tuple":        internal.WithRouteFile(writeRouteFile(t, "- [GET, /]\n")),
	}
	for name, opt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			app, err := internal.New(opt, internal.WithController("Home", homeController{}))
			require.Error(t, err)
			require.Nil(t, app)
		})
	}
}

func TestApp_Run(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	hookErr := errors.New("close failed")
	var order []string

	app, err := internal.New(
		internal.WithRoutes(internal.RouteDef{Method: "GET", Pattern: "/", Handler: "Home.index"}),
		internal.WithController("Home", homeController{}),
		internal.WithListener(ln),
		internal.WithShutdownTimeout(time.Second),
		internal.WithShutdownHook(func(context.Context) error {
			order = append(order, "first")
			return nil
		}),
		internal.WithShutdownHook(func(context.Context) error {
			order = append(order, "second")
			return hookErr
		}),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	url := "http://" + ln.Addr().String() + "/"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, hookErr)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
	require.Equal(t, []string{"first", "second"}, order)
}
