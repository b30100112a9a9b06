package internal

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/dmitrymomot/waypoint/pkg/identity"
	"github.com/dmitrymomot/waypoint/pkg/password"
	"github.com/dmitrymomot/waypoint/pkg/session"
)

// Plain-text bodies for dispatch failures.
const (
	bodyNotFound         = "404 Not Found"
	bodyMethodNotAllowed = "405 Method Not Allowed"
	bodyInternalError    = "500 Internal Server Error"
)

// Default redirect targets for guard denials.
const (
	DefaultLoginPath = "/login"
	DefaultHomePath  = "/"
)

// KernelConfig holds the kernel's collaborators. Zero values get defaults.
type KernelConfig struct {
	Sessions    *SessionManager   // Default: in-memory store
	Identities  identity.Store    // Default: empty in-memory store
	Verifier    password.Verifier // Default: password.Default
	Logger      *slog.Logger      // Default: discard
	Middlewares []Middleware
	APIPrefix   string
	LoginPath   string
	HomePath    string
}

// Kernel dispatches requests: match, guard, invoke, respond.
// It never panics past Handle; every fault becomes a 500.
type Kernel struct {
	table      *RouteTable
	handlers   map[*Route]HandlerFunc
	sessions   *SessionManager
	identities identity.Store
	verifier   password.Verifier
	logger     *slog.Logger
	apiPrefix  string
	loginPath  string
	homePath   string
}

// NewKernel creates a kernel over table.
func NewKernel(table *RouteTable, cfg KernelConfig) *Kernel {
	k := &Kernel{
		table:      table,
		sessions:   cfg.Sessions,
		identities: cfg.Identities,
		verifier:   cfg.Verifier,
		logger:     cfg.Logger,
		apiPrefix:  cfg.APIPrefix,
		loginPath:  cfg.LoginPath,
		homePath:   cfg.HomePath,
	}

	if k.table == nil {
		k.table = &RouteTable{}
	}
	if k.sessions == nil {
		k.sessions = NewSessionManager(session.NewMemoryStore(session.WithCleanupInterval(0)))
	}
	if k.identities == nil {
		k.identities = identity.NewMemoryStore()
	}
	if k.verifier == nil {
		k.verifier = password.Default
	}
	if k.logger == nil {
		k.logger = slog.New(slog.DiscardHandler)
	}
	if k.apiPrefix == "" {
		k.apiPrefix = DefaultAPIPrefix
	}
	if k.loginPath == "" {
		k.loginPath = DefaultLoginPath
	}
	if k.homePath == "" {
		k.homePath = DefaultHomePath
	}

	k.handlers = make(map[*Route]HandlerFunc, len(k.table.routes))
	for _, rt := range k.table.routes {
		k.handlers[rt] = chain(rt.Handler, cfg.Middlewares)
	}

	return k
}

// Table returns the kernel's route table.
func (k *Kernel) Table() *RouteTable {
	return k.table
}

// Sessions returns the kernel's session manager.
func (k *Kernel) Sessions() *SessionManager {
	return k.sessions
}

// NewRequest wraps hr in a request context bound to the client's session.
func (k *Kernel) NewRequest(hr *http.Request) *Request {
	ctx := hr.Context()
	sess := newSessionHandle(ctx, k.sessions, hr)
	log := k.logger.With(
		slog.String("method", hr.Method),
		slog.String("path", NormalizePath(hr.URL.Path)),
	)

	return &Request{
		http:    hr,
		kernel:  k,
		session: sess,
		auth:    NewAuthGate(ctx, sess, k.identities, k.verifier, log),
		logger:  log,
	}
}

// Handle dispatches hr and returns the response to send. It always returns
// a response.
func (k *Kernel) Handle(hr *http.Request) (resp *Response) {
	req := k.NewRequest(hr)

	defer func() {
		if rec := recover(); rec != nil {
			resp = k.fault(req, &PanicError{Value: rec, Stack: debug.Stack()})
		}
		resp = req.finalize(resp)
	}()

	return k.dispatch(req)
}

// ServeHTTP implements http.Handler.
func (k *Kernel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := k.Handle(r)
	if err := resp.Write(w, r.Method == http.MethodHead); err != nil {
		k.logger.DebugContext(r.Context(), "write response", slog.Any("error", err))
	}
}

func (k *Kernel) dispatch(req *Request) *Response {
	ctx := req.Context()
	m := k.table.Match(req.Method(), req.http.URL.EscapedPath())

	switch m.Status {
	case MatchNotFound:
		req.logger.DebugContext(ctx, "no route", slog.Any("error", ErrRouteNotFound))
		return k.status(req, http.StatusNotFound, bodyNotFound)
	case MatchMethodNotAllowed:
		req.logger.DebugContext(ctx, "method not allowed",
			slog.Any("error", ErrMethodNotAllowed),
			slog.Any("allowed", m.Allowed),
		)
		resp := k.status(req, http.StatusMethodNotAllowed, bodyMethodNotAllowed)
		resp.Header.Set("Allow", strings.Join(m.Allowed, ", "))
		return resp
	}

	req.bind(m)

	out, err := Evaluate(m.Route.Guard, req)
	if err != nil {
		return k.fault(req, err)
	}
	if !out.Allowed() {
		req.logger.DebugContext(ctx, "guard denied request",
			slog.String("guard", m.Route.Guard.String()),
			slog.Int("status", out.Status()),
			slog.Any("error", out.Err()),
		)
		return k.denial(req, out)
	}

	resp, err := k.handlers[m.Route](req, m.Params...)
	if err != nil {
		return k.handlerError(req, err)
	}
	if resp == nil {
		return NoContent()
	}
	return resp
}

// denial renders a guard's Deny outcome.
func (k *Kernel) denial(req *Request, out GuardOutcome) *Response {
	if resp := out.Response(); resp != nil {
		return resp
	}
	status := out.Status()
	if status == 0 {
		status = http.StatusForbidden
	}
	reason := out.Reason()
	if reason == "" {
		reason = http.StatusText(status)
	}
	if req.IsAPI() {
		return JSONError(status, reason, nil)
	}
	return Text(status, reason)
}

// handlerError renders an error returned by a handler.
func (k *Kernel) handlerError(req *Request, err error) *Response {
	httpErr := AsHTTPError(err)
	if httpErr == nil || httpErr.Code < 400 {
		return k.fault(req, err)
	}

	if httpErr.Code >= http.StatusInternalServerError {
		req.logger.ErrorContext(req.Context(), "handler returned server error",
			slog.Int("status", httpErr.Code),
			slog.Any("error", err),
		)
	}

	if req.IsAPI() {
		return JSONError(httpErr.Code, httpErr.Message, httpErr.Details)
	}
	return Text(httpErr.Code, httpErr.Message)
}

// fault logs err as a handler fault and renders a detail-free 500.
func (k *Kernel) fault(req *Request, err error) *Response {
	attrs := []any{slog.Any("error", errors.Join(ErrHandlerFault, err))}
	if req.route != nil {
		attrs = append(attrs, slog.String("handler", req.route.HandlerRef))
	}
	var pe *PanicError
	if errors.As(err, &pe) && pe.Stack != nil {
		attrs = append(attrs, slog.String("stack", string(pe.Stack)))
	}
	req.logger.ErrorContext(req.Context(), "request failed", attrs...)

	return k.status(req, http.StatusInternalServerError, bodyInternalError)
}

// status renders a dispatch-level status in the client's preferred shape.
func (k *Kernel) status(req *Request, code int, plain string) *Response {
	if req.IsAPI() {
		return JSONError(code, http.StatusText(code), nil)
	}
	return Text(code, plain)
}
