package internal

import (
	"context"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dmitrymomot/waypoint/pkg/identity"
	"github.com/dmitrymomot/waypoint/pkg/logger"
	"github.com/dmitrymomot/waypoint/pkg/password"
	"github.com/dmitrymomot/waypoint/pkg/routefile"
	"github.com/dmitrymomot/waypoint/pkg/session"
)

// Option configures the application.
type Option func(*App)

// WithRoutes registers route tuples. Routes are matched in registration
// order across all route options.
//
// Example:
//
//	waypoint.WithRoutes(
//	    waypoint.RouteDef{Method: "GET", Pattern: "/", Handler: "Home.index"},
//	    waypoint.RouteDef{Method: "GET", Pattern: "/admin", Handler: "Admin.index", Guard: []string{"auth", "role:admin"}},
//	)
func WithRoutes(defs ...RouteDef) Option {
	return func(a *App) {
		a.routeSources = append(a.routeSources, func() ([]RouteDef, error) {
			return defs, nil
		})
	}
}

// WithRouteFile loads routes from a YAML file when the app is built.
func WithRouteFile(path string) Option {
	return func(a *App) {
		a.routeSources = append(a.routeSources, func() ([]RouteDef, error) {
			entries, err := routefile.Load(path)
			if err != nil {
				return nil, err
			}
			return RouteDefsFromEntries(entries), nil
		})
	}
}

// WithRouteDir loads every YAML route file under dir in lexical order.
// A missing directory is an error.
func WithRouteDir(dir string) Option {
	return func(a *App) {
		a.routeSources = append(a.routeSources, func() ([]RouteDef, error) {
			entries, err := routefile.LoadDir(dir)
			if err != nil {
				return nil, err
			}
			return RouteDefsFromEntries(entries), nil
		})
	}
}

// WithRouteFS loads YAML route files under root in fsys, typically an
// embedded filesystem.
func WithRouteFS(fsys fs.FS, root string) Option {
	return func(a *App) {
		a.routeSources = append(a.routeSources, func() ([]RouteDef, error) {
			entries, err := routefile.LoadFS(fsys, root)
			if err != nil {
				return nil, err
			}
			return RouteDefsFromEntries(entries), nil
		})
	}
}

// RouteDefsFromEntries converts route file entries into route tuples.
func RouteDefsFromEntries(entries []routefile.Entry) []RouteDef {
	defs := make([]RouteDef, len(entries))
	for i, e := range entries {
		defs[i] = RouteDef{
			Method:  e.Method,
			Pattern: e.Path,
			Handler: e.Handler,
			Guard:   e.GuardValue(),
			Source:  e.Source,
		}
	}
	return defs
}

// WithController registers a controller for "Name.action" handler references.
func WithController(name string, c Controller) Option {
	return func(a *App) {
		a.controllers[name] = c
	}
}

// WithGuard registers a custom guard usable by name in route guard lists.
//
// Example:
//
//	waypoint.WithGuard("verified", waypoint.GuardFunc(func(r *waypoint.Request) (waypoint.GuardOutcome, error) {
//	    ...
//	}))
func WithGuard(name string, g Guard) Option {
	return func(a *App) {
		a.guards[name] = g
	}
}

// WithSessionStore sets the session backend. Defaults to an in-memory store.
func WithSessionStore(store session.Store) Option {
	return func(a *App) {
		a.sessionStore = store
	}
}

// WithSessionOptions configures the session cookie.
//
// Example:
//
//	waypoint.WithSessionOptions(
//	    waypoint.WithSessionCookieName("__sid"),
//	    waypoint.WithSessionSecure(true),
//	)
func WithSessionOptions(opts ...SessionOption) Option {
	return func(a *App) {
		a.sessionOpts = append(a.sessionOpts, opts...)
	}
}

// WithIdentityStore sets the user and role lookup backend.
func WithIdentityStore(store identity.Store) Option {
	return func(a *App) {
		a.identities = store
	}
}

// WithPasswordVerifier overrides password verification.
// Defaults to password.Default (bcrypt and argon2id).
func WithPasswordVerifier(v password.Verifier) Option {
	return func(a *App) {
		a.verifier = v
	}
}

// WithLoginPath sets where unauthenticated browsers are redirected.
// Defaults to "/login".
func WithLoginPath(path string) Option {
	return func(a *App) {
		a.loginPath = path
	}
}

// WithHomePath sets where forbidden browsers are redirected.
// Defaults to "/".
func WithHomePath(path string) Option {
	return func(a *App) {
		a.homePath = path
	}
}

// WithAPIPrefix sets the path fragment that marks API requests.
// Defaults to "/api/".
func WithAPIPrefix(prefix string) Option {
	return func(a *App) {
		a.apiPrefix = prefix
	}
}

// WithMiddleware adds kernel middleware around every handler.
// Middleware is applied in the order provided and runs only after the
// route's guard has allowed the request.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithHTTPMiddleware adds net/http middleware in front of the kernel and
// health endpoints.
func WithHTTPMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(a *App) {
		a.httpMiddlewares = append(a.httpMiddlewares, mw...)
	}
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
func WithLogger(component string, extractors ...logger.ContextExtractor) Option {
	return func(a *App) {
		a.logger = logger.New(logger.Config{}, extractors...).With("component", component)
	}
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithAddress sets the HTTP listen address. Defaults to ":8080".
func WithAddress(addr string) Option {
	return func(a *App) {
		a.address = addr
	}
}

// WithListener serves on an existing listener instead of WithAddress.
func WithListener(ln net.Listener) Option {
	return func(a *App) {
		a.listener = ln
	}
}

// WithHealthChecks enables health check endpoints with optional configuration.
// Repeated calls add to the same configuration.
// Liveness (/health/live): Always returns OK if process is running.
// Readiness (/health/ready): Runs all configured checks.
//
// Example:
//
//	waypoint.WithHealthChecks(
//	    waypoint.WithReadinessCheck("db", db.Healthcheck(pool)),
//	    waypoint.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		if a.healthConfig == nil {
			a.healthConfig = &healthConfig{
				livenessPath:  defaultLivenessPath,
				readinessPath: defaultReadinessPath,
			}
		}
		for _, opt := range opts {
			opt(a.healthConfig)
		}
	}
}

// WithShutdownHook registers a cleanup function to run during shutdown.
// Hooks are called in the order they were registered.
//
// Example:
//
//	waypoint.WithShutdownHook(db.Shutdown(pool))
func WithShutdownHook(fn func(context.Context) error) Option {
	return func(a *App) {
		if fn != nil {
			a.shutdownHooks = append(a.shutdownHooks, fn)
		}
	}
}

// WithShutdownTimeout sets the timeout for graceful shutdown.
// Defaults to 30 seconds.
func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.shutdownTimeout = d
		}
	}
}
