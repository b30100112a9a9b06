package waypoint

import (
	"context"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dmitrymomot/waypoint/internal"
	"github.com/dmitrymomot/waypoint/pkg/health"
	"github.com/dmitrymomot/waypoint/pkg/identity"
	"github.com/dmitrymomot/waypoint/pkg/logger"
	"github.com/dmitrymomot/waypoint/pkg/password"
	"github.com/dmitrymomot/waypoint/pkg/routefile"
	"github.com/dmitrymomot/waypoint/pkg/session"
)

// Type aliases - public API
type (
	// App builds the route table, mounts the kernel and runs the server.
	App = internal.App

	// Option configures the application.
	Option = internal.Option

	// Kernel dispatches requests: match, guard, invoke, respond.
	Kernel = internal.Kernel

	// KernelConfig holds the kernel's collaborators.
	KernelConfig = internal.KernelConfig

	// Request is the per-request context handed to guards and handlers.
	Request = internal.Request

	// Response is the outcome of a dispatch.
	Response = internal.Response

	// HandlerFunc is the signature for route handlers. Path parameters are
	// passed positionally in pattern order.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps a HandlerFunc. It runs after the route's guard.
	Middleware = internal.Middleware

	// Controller groups named actions for "Controller.action" references.
	Controller = internal.Controller

	// Controllers is a registry of controllers by name.
	Controllers = internal.Controllers

	// HandlerResolver turns a handler reference into a HandlerFunc.
	HandlerResolver = internal.HandlerResolver

	// RouteDef is one route tuple: method, pattern, handler, optional guard.
	RouteDef = internal.RouteDef

	// Route is a validated route table entry.
	Route = internal.Route

	// RouteTable is the ordered, immutable set of routes.
	RouteTable = internal.RouteTable

	// MatchResult is the outcome of matching a method and path.
	MatchResult = internal.MatchResult

	// MatchStatus classifies a MatchResult.
	MatchStatus = internal.MatchStatus

	// Guard decides whether a request may reach its handler.
	Guard = internal.Guard

	// GuardFunc adapts a function to Guard.
	GuardFunc = internal.GuardFunc

	// GuardOutcome is a guard's verdict.
	GuardOutcome = internal.GuardOutcome

	// GuardSpec is the typed access policy attached to a route.
	GuardSpec = internal.GuardSpec

	// GuardKind identifies a GuardSpec variant.
	GuardKind = internal.GuardKind

	// AuthGate answers identity questions for the current request.
	AuthGate = internal.AuthGate

	// SessionStore is the request-scoped session interface.
	SessionStore = internal.SessionStore

	// SessionManager handles session lifecycle and cookies.
	SessionManager = internal.SessionManager

	// SessionOption configures the session manager.
	SessionOption = internal.SessionOption

	// Session is a stored session record.
	Session = session.Session

	// SessionBackend persists sessions.
	SessionBackend = session.Store

	// Identity is an authenticated user.
	Identity = identity.Identity

	// Role is a named set of permissions.
	Role = identity.Role

	// IdentityStore looks up users and roles.
	IdentityStore = identity.Store

	// HTTPError is a deliberate non-200 outcome returned by a handler.
	HTTPError = internal.HTTPError

	// HTTPErrorOption configures an HTTPError.
	HTTPErrorOption = internal.HTTPErrorOption

	// PanicError carries a recovered panic.
	PanicError = internal.PanicError

	// Envelope is the JSON body shape for API responses.
	Envelope = internal.Envelope

	// EnvelopeError is the error member of an Envelope.
	EnvelopeError = internal.EnvelopeError

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// ContextExtractor extracts a slog attribute from context.
	// Used with WithLogger to add request-scoped values to logs.
	ContextExtractor = logger.ContextExtractor
)

// Match statuses.
const (
	MatchNotFound         = internal.MatchNotFound
	MatchFound            = internal.MatchFound
	MatchMethodNotAllowed = internal.MatchMethodNotAllowed
)

// Guard kinds.
const (
	GuardKindNone          = internal.GuardKindNone
	GuardKindAuthenticated = internal.GuardKindAuthenticated
	GuardKindRole          = internal.GuardKindRole
	GuardKindPermission    = internal.GuardKindPermission
	GuardKindCustom        = internal.GuardKindCustom
	GuardKindSequence      = internal.GuardKindSequence
)

// Defaults.
const (
	DefaultAPIPrefix = internal.DefaultAPIPrefix
	DefaultLoginPath = internal.DefaultLoginPath
	DefaultHomePath  = internal.DefaultHomePath
)

// Dispatch errors.
var (
	ErrRouteNotFound        = internal.ErrRouteNotFound
	ErrMethodNotAllowed     = internal.ErrMethodNotAllowed
	ErrUnauthenticated      = internal.ErrUnauthenticated
	ErrForbidden            = internal.ErrForbidden
	ErrHandlerFault         = internal.ErrHandlerFault
	ErrMalformedRouteSource = internal.ErrMalformedRouteSource
)

// Constructors

// New creates a new application with the given options.
// A malformed route source is returned as an error wrapping
// ErrMalformedRouteSource; the app never starts with a partial table.
//
// Example:
//
//	app, err := waypoint.New(
//	    waypoint.WithLogger("web"),
//	    waypoint.WithController("Dashboard", dashboard),
//	    waypoint.WithRouteDir("routes"),
//	    waypoint.WithIdentityStore(users),
//	)
//	if err != nil {
//	    return err
//	}
//	return app.Run(ctx)
func New(opts ...Option) (*App, error) {
	return internal.New(opts...)
}

// NewRouteTable validates route tuples into a table. String handlers are
// resolved through resolver; guard names beyond auth, role:<name> and
// permission:<name> are looked up in guards.
func NewRouteTable(defs []RouteDef, resolver HandlerResolver, guards map[string]Guard) (*RouteTable, error) {
	return internal.NewRouteTable(defs, resolver, guards)
}

// NewKernel creates a kernel over table. Use it to embed dispatch into an
// existing server instead of New.
func NewKernel(table *RouteTable, cfg KernelConfig) *Kernel {
	return internal.NewKernel(table, cfg)
}

// NewSessionManager creates a session manager over a session backend.
func NewSessionManager(store SessionBackend, opts ...SessionOption) *SessionManager {
	return internal.NewSessionManager(store, opts...)
}

// App options

// WithRoutes registers route tuples in match order.
func WithRoutes(defs ...RouteDef) Option {
	return internal.WithRoutes(defs...)
}

// WithRouteFile loads routes from a YAML file.
func WithRouteFile(path string) Option {
	return internal.WithRouteFile(path)
}

// WithRouteDir loads every YAML route file under dir in lexical order.
func WithRouteDir(dir string) Option {
	return internal.WithRouteDir(dir)
}

// WithRouteFS loads YAML route files from fsys, typically embedded.
//
// Example:
//
//	//go:embed routes
//	var routes embed.FS
//
//	waypoint.New(
//	    waypoint.WithRouteFS(routes, "routes"),
//	)
func WithRouteFS(fsys fs.FS, root string) Option {
	return internal.WithRouteFS(fsys, root)
}

// RouteDefsFromEntries converts parsed route file entries into route tuples.
func RouteDefsFromEntries(entries []routefile.Entry) []RouteDef {
	return internal.RouteDefsFromEntries(entries)
}

// WithController registers a controller for "Name.action" references.
func WithController(name string, c Controller) Option {
	return internal.WithController(name, c)
}

// WithGuard registers a named custom guard for route guard lists.
func WithGuard(name string, g Guard) Option {
	return internal.WithGuard(name, g)
}

// WithSessionStore sets the session backend. Defaults to in-memory.
func WithSessionStore(store SessionBackend) Option {
	return internal.WithSessionStore(store)
}

// WithSessionOptions configures the session cookie.
func WithSessionOptions(opts ...SessionOption) Option {
	return internal.WithSessionOptions(opts...)
}

// WithIdentityStore sets the user and role lookup backend.
func WithIdentityStore(store IdentityStore) Option {
	return internal.WithIdentityStore(store)
}

// WithPasswordVerifier overrides password verification.
func WithPasswordVerifier(v password.Verifier) Option {
	return internal.WithPasswordVerifier(v)
}

// WithLoginPath sets where unauthenticated browsers are redirected.
func WithLoginPath(path string) Option {
	return internal.WithLoginPath(path)
}

// WithHomePath sets where forbidden browsers are redirected.
func WithHomePath(path string) Option {
	return internal.WithHomePath(path)
}

// WithAPIPrefix sets the path fragment that marks API requests.
func WithAPIPrefix(prefix string) Option {
	return internal.WithAPIPrefix(prefix)
}

// WithMiddleware adds kernel middleware around every handler.
// It runs only after the route's guard allowed the request.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithHTTPMiddleware adds net/http middleware in front of route matching.
func WithHTTPMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return internal.WithHTTPMiddleware(mw...)
}

// WithLogger creates a logger with a component name and optional extractors.
// The component name is added to every log entry for easy filtering.
// Extractors pull values from context (e.g., request_id).
//
// Example:
//
//	waypoint.New(
//	    waypoint.WithLogger("web", middlewares.RequestIDExtractor()),
//	)
func WithLogger(component string, extractors ...ContextExtractor) Option {
	return internal.WithLogger(component, extractors...)
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return internal.WithCustomLogger(l)
}

// WithAddress sets the HTTP listen address. Defaults to ":8080".
func WithAddress(addr string) Option {
	return internal.WithAddress(addr)
}

// WithListener serves on an existing listener.
func WithListener(ln net.Listener) Option {
	return internal.WithListener(ln)
}

// WithHealthChecks enables health check endpoints with optional configuration.
// Liveness (/health/live): Always returns OK if process is running.
// Readiness (/health/ready): Runs all configured checks.
//
// Example:
//
//	waypoint.WithHealthChecks(
//	    waypoint.WithReadinessCheck("db", db.Healthcheck(pool)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// WithShutdownHook registers a cleanup function to run during shutdown.
//
// Example:
//
//	waypoint.WithShutdownHook(db.Shutdown(pool))
func WithShutdownHook(fn func(context.Context) error) Option {
	return internal.WithShutdownHook(fn)
}

// WithShutdownTimeout sets the timeout for graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return internal.WithShutdownTimeout(d)
}

// Health check options

// WithLivenessPath sets a custom liveness endpoint path.
func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

// WithReadinessPath sets a custom readiness endpoint path.
func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

// WithReadinessCheck adds a named readiness check.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// Session options

// WithSessionCookieName sets the session cookie name. Defaults to "__sid".
func WithSessionCookieName(name string) SessionOption {
	return internal.WithSessionCookieName(name)
}

// WithSessionMaxAge sets the session lifetime in seconds.
func WithSessionMaxAge(seconds int) SessionOption {
	return internal.WithSessionMaxAge(seconds)
}

// WithSessionDomain sets the session cookie domain.
func WithSessionDomain(domain string) SessionOption {
	return internal.WithSessionDomain(domain)
}

// WithSessionPath sets the session cookie path.
func WithSessionPath(path string) SessionOption {
	return internal.WithSessionPath(path)
}

// WithSessionSecure sets the session cookie Secure flag.
func WithSessionSecure(secure bool) SessionOption {
	return internal.WithSessionSecure(secure)
}

// WithSessionHTTPOnly sets the session cookie HttpOnly flag.
func WithSessionHTTPOnly(httpOnly bool) SessionOption {
	return internal.WithSessionHTTPOnly(httpOnly)
}

// WithSessionSameSite sets the session cookie SameSite attribute.
func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return internal.WithSessionSameSite(sameSite)
}

// WithSessionSecret signs the session cookie.
func WithSessionSecret(secret string) SessionOption {
	return internal.WithSessionSecret(secret)
}

// Guards

// GuardNone returns the policy that admits everyone.
func GuardNone() GuardSpec { return internal.GuardNone() }

// GuardAuthenticated requires a logged-in user.
func GuardAuthenticated() GuardSpec { return internal.GuardAuthenticated() }

// GuardRole requires a logged-in user with the named role.
func GuardRole(role string) GuardSpec { return internal.GuardRole(role) }

// GuardPermission requires a logged-in user whose role grants perm.
func GuardPermission(perm string) GuardSpec { return internal.GuardPermission(perm) }

// GuardCustom wraps a named custom guard.
func GuardCustom(name string, g Guard) GuardSpec { return internal.GuardCustom(name, g) }

// GuardSequence evaluates specs in order and stops at the first denial.
func GuardSequence(specs ...GuardSpec) GuardSpec { return internal.GuardSequence(specs...) }

// ParseGuard converts a route's guard value into a GuardSpec.
func ParseGuard(v any, customs map[string]Guard) (GuardSpec, error) {
	return internal.ParseGuard(v, customs)
}

// Allow admits the request.
func Allow() GuardOutcome { return internal.Allow() }

// Deny rejects the request with status, reason and an optional response.
func Deny(status int, reason string, resp *Response) GuardOutcome {
	return internal.Deny(status, reason, resp)
}

// DenyUnauthenticated is the standard 401 or login redirect.
func DenyUnauthenticated(r *Request) GuardOutcome { return internal.DenyUnauthenticated(r) }

// DenyForbidden is the standard 403 or home redirect.
func DenyForbidden(r *Request) GuardOutcome { return internal.DenyForbidden(r) }

// Evaluate runs spec against r.
func Evaluate(spec GuardSpec, r *Request) (GuardOutcome, error) { return internal.Evaluate(spec, r) }

// Authorize evaluates spec inside a handler. It returns ErrUnauthenticated
// or ErrForbidden on denial.
func Authorize(r *Request, spec GuardSpec) error { return internal.Authorize(r, spec) }

// Responses

// NewResponse creates a response with status and body.
func NewResponse(status int, body []byte) *Response { return internal.NewResponse(status, body) }

// Text creates a text/plain response.
func Text(status int, body string) *Response { return internal.Text(status, body) }

// HTML creates a text/html response.
func HTML(status int, body string) *Response { return internal.HTML(status, body) }

// JSON encodes v as the response body.
func JSON(status int, v any) *Response { return internal.JSON(status, v) }

// JSONSuccess writes a success envelope.
func JSONSuccess(status int, data any, message string) *Response {
	return internal.JSONSuccess(status, data, message)
}

// JSONError writes an error envelope.
func JSONError(status int, message string, details any) *Response {
	return internal.JSONError(status, message, details)
}

// SuccessEnvelope builds a success envelope.
func SuccessEnvelope(data any, message string) Envelope {
	return internal.SuccessEnvelope(data, message)
}

// ErrorEnvelope builds an error envelope.
func ErrorEnvelope(message string, details any) Envelope {
	return internal.ErrorEnvelope(message, details)
}

// Redirect creates a 302 redirect.
func Redirect(location string) *Response { return internal.Redirect(location) }

// RedirectWithStatus creates a redirect with a specific 3xx status.
func RedirectWithStatus(status int, location string) *Response {
	return internal.RedirectWithStatus(status, location)
}

// NoContent creates a 204 response.
func NoContent() *Response { return internal.NoContent() }

// Success answers API clients with a success envelope and browsers with a
// flash and a redirect home.
func Success(r *Request, data any, message string) (*Response, error) {
	return internal.Success(r, data, message)
}

// SuccessTo is Success with an explicit browser redirect target.
func SuccessTo(r *Request, data any, message, location string) (*Response, error) {
	return internal.SuccessTo(r, data, message, location)
}

// Fail answers API clients with an error envelope and browsers with a
// flash and a redirect back.
func Fail(r *Request, status int, message string, details any) (*Response, error) {
	return internal.Fail(r, status, message, details)
}

// Back returns the same-origin Referer path, or "/".
func Back(r *Request) string { return internal.Back(r) }

// IsAPIRequest reports whether r expects a JSON answer.
func IsAPIRequest(r *http.Request, apiPrefix string) bool { return internal.IsAPIRequest(r, apiPrefix) }

// NormalizePath strips the query and fragment and forces a leading slash.
func NormalizePath(p string) string { return internal.NormalizePath(p) }

// Errors

// NewHTTPError creates an HTTPError.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.NewHTTPError(code, message, opts...)
}

// WithDetails attaches structured details to an HTTPError.
func WithDetails(details any) HTTPErrorOption { return internal.WithDetails(details) }

// WithError attaches the underlying cause to an HTTPError.
func WithError(err error) HTTPErrorOption { return internal.WithError(err) }

// ErrBadRequest creates a 400 HTTPError.
func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrBadRequest(message, opts...)
}

// ErrNotFound creates a 404 HTTPError.
func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrNotFound(message, opts...)
}

// ErrConflict creates a 409 HTTPError.
func ErrConflict(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrConflict(message, opts...)
}

// ErrUnprocessable creates a 422 HTTPError.
func ErrUnprocessable(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrUnprocessable(message, opts...)
}

// AsHTTPError extracts an HTTPError from err's chain.
func AsHTTPError(err error) *HTTPError { return internal.AsHTTPError(err) }

// Typed parameters

// Param retrieves a typed path parameter.
func Param[T ~string | ~int | ~int64 | ~float64 | ~bool](r *Request, name string) T {
	return internal.Param[T](r, name)
}

// Query retrieves a typed query parameter.
func Query[T ~string | ~int | ~int64 | ~float64 | ~bool](r *Request, name string) T {
	return internal.Query[T](r, name)
}

// QueryDefault retrieves a typed query parameter with a default value.
func QueryDefault[T ~string | ~int | ~int64 | ~float64 | ~bool](r *Request, name string, defaultValue T) T {
	return internal.QueryDefault(r, name, defaultValue)
}
