package internal

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
)

// Request is the explicit per-request context handed to guards, middleware
// and handlers. It is created by the kernel for a single dispatch and must
// not be retained after the response is produced.
type Request struct {
	http    *http.Request
	kernel  *Kernel
	route   *Route
	session *sessionHandle
	auth    *AuthGate
	logger  *slog.Logger
	params  []string
	cookies []*http.Cookie
}

// Method returns the HTTP method.
func (r *Request) Method() string {
	return r.http.Method
}

// Path returns the normalized request path.
func (r *Request) Path() string {
	return NormalizePath(r.http.URL.Path)
}

// Header returns the first value of the named request header.
func (r *Request) Header(name string) string {
	return r.http.Header.Get(name)
}

// Param returns the value of the named path parameter, or "".
func (r *Request) Param(name string) string {
	if r.route == nil {
		return ""
	}
	for i, n := range r.route.names {
		if n == name && i < len(r.params) {
			return r.params[i]
		}
	}
	return ""
}

// Params returns path parameter values in the order the pattern declares them.
func (r *Request) Params() []string {
	out := make([]string, len(r.params))
	copy(out, r.params)
	return out
}

// Query returns the first value of the named query parameter.
func (r *Request) Query(name string) string {
	return r.http.URL.Query().Get(name)
}

// Context returns the request's context.
func (r *Request) Context() context.Context {
	return r.http.Context()
}

// HTTP returns the underlying *http.Request.
func (r *Request) HTTP() *http.Request {
	return r.http
}

// Auth returns the authentication gate bound to this request's session.
func (r *Request) Auth() *AuthGate {
	return r.auth
}

// Session returns the request's session.
func (r *Request) Session() SessionStore {
	return r.session
}

// IsAPI reports whether the client expects JSON rather than HTML.
func (r *Request) IsAPI() bool {
	return IsAPIRequest(r.http, r.kernel.apiPrefix)
}

// Logger returns the request-scoped logger.
func (r *Request) Logger() *slog.Logger {
	return r.logger
}

// Route returns the matched route, or nil before dispatch.
func (r *Request) Route() *Route {
	return r.route
}

// LoginPath returns where unauthenticated browsers are sent.
func (r *Request) LoginPath() string {
	return r.kernel.loginPath
}

// HomePath returns where forbidden browsers are sent.
func (r *Request) HomePath() string {
	return r.kernel.homePath
}

// SetCookie queues a cookie for whatever response the kernel emits.
func (r *Request) SetCookie(c *http.Cookie) {
	r.cookies = append(r.cookies, c)
}

// bind records the match result on the request.
func (r *Request) bind(m MatchResult) {
	r.route = m.Route
	r.params = m.Params
	r.logger = r.logger.With(
		slog.String("route", m.Route.Method+" "+m.Route.Pattern),
	)
}

// pendingCookies returns the session cookies followed by the cookies queued
// through SetCookie.
func (r *Request) pendingCookies() []*http.Cookie {
	out := make([]*http.Cookie, 0, len(r.session.cookies)+len(r.cookies))
	out = append(out, r.session.cookies...)
	return append(out, r.cookies...)
}

// finalize returns resp with the pending cookies attached. resp itself is
// not modified, so a handler may return a shared response value.
func (r *Request) finalize(resp *Response) *Response {
	pending := r.pendingCookies()
	if len(pending) == 0 {
		return resp
	}

	out := *resp
	out.cookies = slices.Clone(resp.cookies)
	for _, c := range pending {
		out.SetCookie(c)
	}
	return &out
}

// NormalizePath strips the query string and fragment and forces a leading
// slash. An empty path becomes "/".
func NormalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
