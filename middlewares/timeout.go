package middlewares

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrymomot/waypoint/internal"
)

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 30 * time.Second

// Timeout returns HTTP middleware that bounds the request context.
// Store lookups made by guards and handlers observe the deadline through
// Request.Context. Pair it with GatewayTimeout to answer 504 instead of a
// generic handler fault.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GatewayTimeout returns kernel middleware that converts a handler error
// caused by an expired request deadline into a 504 HTTPError wrapping a
// *TimeoutError.
func GatewayTimeout(timeout time.Duration) internal.Middleware {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(r *internal.Request, params ...string) (*internal.Response, error) {
			resp, err := next(r, params...)
			if err == nil {
				return resp, nil
			}
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(r.Context().Err(), context.DeadlineExceeded) {
				r.Logger().WarnContext(r.Context(), "request timeout", "timeout", timeout.String())
				return nil, internal.NewHTTPError(http.StatusGatewayTimeout, "",
					internal.WithError(errors.Join(&TimeoutError{Duration: timeout}, err)),
				)
			}
			return nil, err
		}
	}
}
