package internal

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Controller groups named actions. Route files refer to an action as
// "Controller.action".
type Controller interface {
	Actions() map[string]HandlerFunc
}

// HandlerResolver turns a handler reference into a HandlerFunc.
type HandlerResolver interface {
	Resolve(ref string) (HandlerFunc, error)
}

// Controllers is a registry of controllers by name.
type Controllers map[string]Controller

// Resolve looks up "Controller.action". "Controller@action" is accepted too.
func (c Controllers) Resolve(ref string) (HandlerFunc, error) {
	sep := "."
	if strings.Contains(ref, "@") {
		sep = "@"
	}
	name, action, ok := strings.Cut(ref, sep)
	if !ok || name == "" || action == "" {
		return nil, fmt.Errorf("%w: handler reference %q is not Controller.action", ErrMalformedRouteSource, ref)
	}

	ctrl, ok := c[name]
	if !ok || ctrl == nil {
		return nil, fmt.Errorf("%w: unknown controller %q", ErrMalformedRouteSource, name)
	}
	h, ok := ctrl.Actions()[action]
	if !ok || h == nil {
		return nil, fmt.Errorf("%w: controller %q has no action %q", ErrMalformedRouteSource, name, action)
	}
	return h, nil
}

// Success answers API clients with a success envelope. Browsers get the
// envelope as flash data and a redirect to the home path.
func Success(r *Request, data any, message string) (*Response, error) {
	return SuccessTo(r, data, message, r.HomePath())
}

// SuccessTo is Success with an explicit redirect target for browsers.
func SuccessTo(r *Request, data any, message, location string) (*Response, error) {
	if r.IsAPI() {
		return JSONSuccess(http.StatusOK, data, message), nil
	}
	if err := r.Flash(SuccessEnvelope(data, message)); err != nil {
		return nil, err
	}
	return Redirect(location), nil
}

// Fail answers API clients with an error envelope and status. Browsers get
// the envelope as flash data and a redirect back to the referring page.
func Fail(r *Request, status int, message string, details any) (*Response, error) {
	if r.IsAPI() {
		return JSONError(status, message, details), nil
	}
	if err := r.Flash(ErrorEnvelope(message, details)); err != nil {
		return nil, err
	}
	return Redirect(Back(r)), nil
}

// Back returns the same-origin Referer path, or "/".
func Back(r *Request) string {
	ref := r.Header("Referer")
	if ref == "" {
		return "/"
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "/"
	}
	if u.Host != "" && !strings.EqualFold(u.Host, r.HTTP().Host) {
		return "/"
	}
	if u.Path == "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return "/"
	}
	u.Scheme, u.Host, u.User, u.Fragment = "", "", nil, ""
	return u.RequestURI()
}
