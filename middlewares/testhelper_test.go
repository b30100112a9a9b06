package middlewares_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/waypoint/internal"
)

// newKernel serves h on GET /x behind mws.
func newKernel(t *testing.T, h internal.HandlerFunc, log *slog.Logger, mws ...internal.Middleware) *internal.Kernel {
	t.Helper()

	table, err := internal.NewRouteTable([]internal.RouteDef{
		{Method: http.MethodGet, Pattern: "/x", Handler: h},
	}, nil, nil)
	require.NoError(t, err)

	return internal.NewKernel(table, internal.KernelConfig{
		Logger:      log,
		Middlewares: mws,
	})
}

// captureErr is kernel middleware that records the error returned by the
// rest of the chain.
func captureErr(dst *error) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(r *internal.Request, params ...string) (*internal.Response, error) {
			resp, err := next(r, params...)
			*dst = err
			return resp, err
		}
	}
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})
