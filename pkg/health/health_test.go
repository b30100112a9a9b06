package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/waypoint/pkg/health"
)

func ok(context.Context) error { return nil }

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("no checks is healthy", func(t *testing.T) {
		t.Parallel()

		require.True(t, health.Run(context.Background(), nil).Healthy())
	})

	t.Run("one failure marks unhealthy", func(t *testing.T) {
		t.Parallel()

		report := health.Run(context.Background(), health.Checks{
			"a": ok,
			"b": func(context.Context) error { return errors.New("down") },
			"c": ok,
		})
		require.False(t, report.Healthy())
		require.Equal(t, []string{"b"}, report.Failed())
		require.Equal(t, "down", report.Checks["b"].Error)
		require.Equal(t, health.StatusHealthy, report.Checks["a"].Status)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		report := health.Run(context.Background(), health.Checks{
			"slow": func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		}, health.WithTimeout(20*time.Millisecond))
		require.Equal(t, []string{"slow"}, report.Failed())
	})
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()

	t.Run("healthy text", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		health.ReadinessHandler(health.Checks{"a": ok})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "OK", rec.Body.String())
	})

	t.Run("unhealthy json", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health/ready?format=json", nil)
		health.ReadinessHandler(health.Checks{
			"db": func(context.Context) error { return errors.New("refused") },
		})(rec, req)

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var report health.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		require.Equal(t, health.StatusUnhealthy, report.Status)
		require.Equal(t, "refused", report.Checks["db"].Error)
	})
}

func TestLivenessHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("Accept", "application/json")
	health.LivenessHandler()(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}
