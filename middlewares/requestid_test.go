package middlewares_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/waypoint/internal"
	"github.com/dmitrymomot/waypoint/middlewares"
	"github.com/dmitrymomot/waypoint/pkg/logger"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middlewares.RequestIDFromContext(r.Context())
	})

	t.Run("generates a uuid", func(t *testing.T) {
		rec := serve(middlewares.RequestID()(capture), httptest.NewRequest(http.MethodGet, "/", nil))

		id := rec.Header().Get("X-Request-ID")
		require.NotEmpty(t, id)
		require.Equal(t, id, seen)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
	})

	t.Run("reuses upstream id in header order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Correlation-ID", "corr")
		req.Header.Set("X-Request-ID", "upstream")

		rec := serve(middlewares.RequestID()(capture), req)
		require.Equal(t, "upstream", rec.Header().Get("X-Request-ID"))
		require.Equal(t, "upstream", seen)
	})

	t.Run("custom headers and generator", func(t *testing.T) {
		mw := middlewares.RequestID(
			middlewares.WithRequestIDHeaders("X-Trace"),
			middlewares.WithRequestIDGenerator(func() string { return "generated" }),
			middlewares.WithRequestIDResponseHeader("X-Trace"),
		)

		rec := serve(mw(capture), httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, "generated", rec.Header().Get("X-Trace"))
		require.Empty(t, rec.Header().Get("X-Request-ID"))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "ignored")
		req.Header.Set("X-Trace", "trace-1")
		rec = serve(mw(capture), req)
		require.Equal(t, "trace-1", rec.Header().Get("X-Trace"))
		require.Equal(t, "trace-1", seen)
	})
}

func TestRequestIDFromContext(t *testing.T) {
	t.Parallel()

	require.Empty(t, middlewares.RequestIDFromContext(context.Background()))
	ctx := middlewares.WithRequestID(context.Background(), "abc")
	require.Equal(t, "abc", middlewares.RequestIDFromContext(ctx))
}

func TestRequestIDReachesKernelLogs(t *testing.T) {
	t.Parallel()

	log, buf := bufferLogger()
	log = slog.New(logger.NewLogHandlerDecorator(log.Handler(), middlewares.RequestIDExtractor()))

	var fromRequest string
	k := newKernel(t, func(r *internal.Request, _ ...string) (*internal.Response, error) {
		fromRequest = middlewares.GetRequestID(r)
		r.Logger().InfoContext(r.Context(), "handled")
		return internal.NoContent(), nil
	}, log)

	router := chi.NewRouter()
	router.Use(middlewares.RequestID(middlewares.WithRequestIDGenerator(func() string { return "req-7" })))
	router.Handle("/*", k)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "req-7", fromRequest)

	var entry map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.Contains(line, `"handled"`) {
			require.NoError(t, json.Unmarshal([]byte(line), &entry))
		}
	}
	require.NotNil(t, entry, "handler log entry")
	require.Equal(t, "req-7", entry["request_id"])
}

func TestRequestIDExtractor(t *testing.T) {
	t.Parallel()

	extract := middlewares.RequestIDExtractor()

	_, ok := extract(context.Background())
	require.False(t, ok)

	attr, ok := extract(middlewares.WithRequestID(context.Background(), "id-1"))
	require.True(t, ok)
	require.Equal(t, "request_id", attr.Key)
	require.Equal(t, "id-1", attr.Value.String())
}
