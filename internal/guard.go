package internal

import (
	"fmt"
	"log/slog"
	"net/http"
)

// Guard is a custom access check. Returning an error is a fault, not a
// denial: the kernel answers it with a 500.
type Guard interface {
	Check(r *Request) (GuardOutcome, error)
}

// GuardFunc adapts a function to Guard.
type GuardFunc func(r *Request) (GuardOutcome, error)

// Check calls f(r).
func (f GuardFunc) Check(r *Request) (GuardOutcome, error) {
	return f(r)
}

// GuardOutcome is the result of evaluating a guard: Allow, or Deny with a
// status and the response to send instead of running the handler.
type GuardOutcome struct {
	response *Response
	reason   string
	status   int
	allowed  bool
}

// Allow lets the request through.
func Allow() GuardOutcome {
	return GuardOutcome{allowed: true}
}

// Deny rejects the request. status is the semantic status (401 or 403);
// resp is what the client receives, which may be a redirect. A nil resp is
// rendered by the kernel from status and reason.
func Deny(status int, reason string, resp *Response) GuardOutcome {
	return GuardOutcome{status: status, reason: reason, response: resp}
}

// Allowed reports whether the request may proceed.
func (o GuardOutcome) Allowed() bool { return o.allowed }

// Status returns the denial status, or 0 when allowed.
func (o GuardOutcome) Status() int { return o.status }

// Reason returns the denial message.
func (o GuardOutcome) Reason() string { return o.reason }

// Response returns the response to send for a denial.
func (o GuardOutcome) Response() *Response { return o.response }

// Err maps a denial to ErrUnauthenticated or ErrForbidden. It returns nil
// when allowed.
func (o GuardOutcome) Err() error {
	switch {
	case o.allowed:
		return nil
	case o.status == http.StatusUnauthorized:
		return ErrUnauthenticated
	}
	return ErrForbidden
}

// DenyUnauthenticated answers API clients with a 401 envelope and sends
// browsers to the login page.
func DenyUnauthenticated(r *Request) GuardOutcome {
	const msg = "Authentication required"
	if r.IsAPI() {
		return Deny(http.StatusUnauthorized, msg, JSONError(http.StatusUnauthorized, msg, nil))
	}
	return Deny(http.StatusUnauthorized, msg, Redirect(r.LoginPath()))
}

// DenyForbidden answers API clients with a 403 envelope and sends browsers
// to the home page.
func DenyForbidden(r *Request) GuardOutcome {
	const msg = "Forbidden"
	if r.IsAPI() {
		return Deny(http.StatusForbidden, msg, JSONError(http.StatusForbidden, msg, nil))
	}
	return Deny(http.StatusForbidden, msg, Redirect(r.HomePath()))
}

// Evaluate runs spec against r, stopping at the first denial.
func Evaluate(spec GuardSpec, r *Request) (GuardOutcome, error) {
	switch spec.kind {
	case GuardKindNone:
		return Allow(), nil

	case GuardKindAuthenticated:
		return requireAuthenticated(r)

	case GuardKindRole, GuardKindPermission:
		if out, err := requireAuthenticated(r); err != nil || !out.Allowed() {
			return out, err
		}

		var ok bool
		var err error
		if spec.kind == GuardKindRole {
			ok, err = r.Auth().HasRole(spec.arg)
		} else {
			ok, err = r.Auth().HasPermission(spec.arg)
		}
		if err != nil {
			return GuardOutcome{}, fmt.Errorf("guard %s: %w", spec, err)
		}
		if !ok {
			return DenyForbidden(r), nil
		}
		return Allow(), nil

	case GuardKindCustom:
		if spec.guard == nil {
			return GuardOutcome{}, fmt.Errorf("guard %s: no implementation", spec.arg)
		}
		out, err := spec.guard.Check(r)
		if err != nil {
			return GuardOutcome{}, fmt.Errorf("guard %s: %w", spec.arg, err)
		}
		return out, nil

	case GuardKindSequence:
		for _, member := range spec.seq {
			out, err := Evaluate(member, r)
			if err != nil || !out.Allowed() {
				return out, err
			}
		}
		return Allow(), nil
	}

	return GuardOutcome{}, fmt.Errorf("unknown guard kind %d", spec.kind)
}

func requireAuthenticated(r *Request) (GuardOutcome, error) {
	ok, err := r.Auth().Check()
	if err != nil {
		return GuardOutcome{}, fmt.Errorf("guard auth: %w", err)
	}
	if !ok {
		return DenyUnauthenticated(r), nil
	}
	return Allow(), nil
}

// Authorize evaluates spec for an embedder that produces its own responses.
// It returns nil when allowed, ErrUnauthenticated or ErrForbidden when
// denied, and any other error for faults.
func Authorize(r *Request, spec GuardSpec) error {
	out, err := Evaluate(spec, r)
	if err != nil {
		return err
	}
	return out.Err()
}

// RequireGuard exposes spec as net/http middleware, for handlers that are
// not dispatched by the kernel. Denials and faults are rendered the same
// way the kernel renders them.
func (k *Kernel) RequireGuard(spec GuardSpec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, hr *http.Request) {
			req := k.NewRequest(hr)

			out, err := Evaluate(spec, req)
			var resp *Response
			switch {
			case err != nil:
				resp = k.fault(req, err)
			case !out.Allowed():
				req.logger.DebugContext(hr.Context(), "guard denied request",
					slog.String("guard", spec.String()),
					slog.Int("status", out.Status()),
				)
				resp = k.denial(req, out)
			default:
				// Cookies queued by the guard still have to reach the client.
				for _, c := range req.pendingCookies() {
					http.SetCookie(w, c)
				}
				next.ServeHTTP(w, hr)
				return
			}

			resp = req.finalize(resp)
			if werr := resp.Write(w, hr.Method == http.MethodHead); werr != nil {
				req.logger.DebugContext(hr.Context(), "write response", slog.Any("error", werr))
			}
		})
	}
}
