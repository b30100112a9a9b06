package middlewares_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/waypoint/internal"
	"github.com/dmitrymomot/waypoint/middlewares"
)

func panicking(v any) internal.HandlerFunc {
	return func(*internal.Request, ...string) (*internal.Response, error) {
		panic(v)
	}
}

func TestRecover(t *testing.T) {
	t.Parallel()

	t.Run("converts panic into a handler fault", func(t *testing.T) {
		t.Parallel()

		var got error
		log, buf := bufferLogger()
		k := newKernel(t, panicking("boom"), log, captureErr(&got), middlewares.Recover())

		rec := serve(k, httptest.NewRequest(http.MethodGet, "/x", nil))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, "500 Internal Server Error", rec.Body.String())

		pe, ok := middlewares.AsPanicError(got)
		require.True(t, ok)
		require.Equal(t, "boom", pe.Value)
		require.NotEmpty(t, pe.Stack)
		require.ErrorIs(t, got, internal.ErrHandlerFault)

		require.Contains(t, buf.String(), "request failed")
		require.NotContains(t, rec.Body.String(), "boom")
	})

	t.Run("api clients get the error envelope", func(t *testing.T) {
		t.Parallel()

		k := newKernel(t, panicking(errors.New("db gone")), nil, middlewares.Recover())

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Accept", "application/json")
		rec := serve(k, req)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.JSONEq(t, `{"success":false,"error":{"message":"Internal Server Error"}}`, rec.Body.String())
	})

	t.Run("stack capture can be disabled", func(t *testing.T) {
		t.Parallel()

		var got error
		k := newKernel(t, panicking(42), nil, captureErr(&got), middlewares.Recover(middlewares.WithRecoverDisablePrintStack()))

		serve(k, httptest.NewRequest(http.MethodGet, "/x", nil))
		pe, ok := middlewares.AsPanicError(got)
		require.True(t, ok)
		require.Equal(t, 42, pe.Value)
		require.Nil(t, pe.Stack)
	})

	t.Run("stack size is bounded", func(t *testing.T) {
		t.Parallel()

		var got error
		k := newKernel(t, panicking("x"), nil, captureErr(&got), middlewares.Recover(middlewares.WithRecoverStackSize(64)))

		serve(k, httptest.NewRequest(http.MethodGet, "/x", nil))
		pe, ok := middlewares.AsPanicError(got)
		require.True(t, ok)
		require.LessOrEqual(t, len(pe.Stack), 64)
	})

	t.Run("passes through normal responses", func(t *testing.T) {
		t.Parallel()

		k := newKernel(t, func(*internal.Request, ...string) (*internal.Response, error) {
			return internal.Text(http.StatusOK, "fine"), nil
		}, nil, middlewares.Recover())

		rec := serve(k, httptest.NewRequest(http.MethodGet, "/x", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "fine", rec.Body.String())
	})
}
