package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/waypoint/pkg/health"
	"github.com/dmitrymomot/waypoint/pkg/identity"
	"github.com/dmitrymomot/waypoint/pkg/logger"
	"github.com/dmitrymomot/waypoint/pkg/password"
	"github.com/dmitrymomot/waypoint/pkg/session"
)

// App orchestrates the application lifecycle.
// It builds the route table, mounts the kernel behind a chi router and
// runs the HTTP server with graceful shutdown.
// App is immutable after creation - all configuration is done via New().
type App struct {
	router          chi.Router
	kernel          *Kernel
	logger          *slog.Logger
	healthConfig    *healthConfig
	sessionStore    session.Store
	identities      identity.Store
	verifier        password.Verifier
	listener        net.Listener
	controllers     Controllers
	guards          map[string]Guard
	routeSources    []routeSource
	sessionOpts     []SessionOption
	middlewares     []Middleware
	httpMiddlewares []func(http.Handler) http.Handler
	shutdownHooks   []func(context.Context) error
	address         string
	apiPrefix       string
	loginPath       string
	homePath        string
	shutdownTimeout time.Duration
}

// routeSource yields route tuples when the app is built.
type routeSource func() ([]RouteDef, error)

// New creates a new application with the given options.
// A malformed route source aborts construction; the app never starts with
// a partial route table.
//
// Example:
//
//	app, err := waypoint.New(
//	    waypoint.WithController("Auth", auth),
//	    waypoint.WithRouteDir("routes"),
//	    waypoint.WithSessionStore(store),
//	)
func New(opts ...Option) (*App, error) {
	a := &App{
		router:      chi.NewRouter(),
		logger:      logger.NewNope(), // Default: noop logger (before options)
		controllers: make(Controllers),
		guards:      make(map[string]Guard),
	}

	for _, opt := range opts {
		opt(a)
	}

	var defs []RouteDef
	for _, src := range a.routeSources {
		more, err := src()
		if err != nil {
			return nil, fmt.Errorf("load routes: %w", err)
		}
		defs = append(defs, more...)
	}

	table, err := NewRouteTable(defs, a.controllers, a.guards)
	if err != nil {
		return nil, err
	}

	if a.sessionStore == nil {
		mem := session.NewMemoryStore()
		a.sessionStore = mem
		a.shutdownHooks = append(a.shutdownHooks, closeHook(mem))
	}

	a.kernel = NewKernel(table, KernelConfig{
		Sessions:    NewSessionManager(a.sessionStore, a.sessionOpts...),
		Identities:  a.identities,
		Verifier:    a.verifier,
		Logger:      a.logger,
		Middlewares: a.middlewares,
		APIPrefix:   a.apiPrefix,
		LoginPath:   a.loginPath,
		HomePath:    a.homePath,
	})

	a.setupRoutes()

	a.logger.Info("routes loaded", slog.Int("count", table.Len()))
	return a, nil
}

// Handler returns the application's root http.Handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// Kernel returns the dispatch kernel.
func (a *App) Kernel() *Kernel {
	return a.kernel
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// process receives SIGINT/SIGTERM. Shutdown hooks run after the server
// has stopped accepting requests.
func (a *App) Run(ctx context.Context) error {
	return runServer(runtimeConfig{
		handler:         a.router,
		listener:        a.listener,
		address:         a.address,
		logger:          a.logger,
		shutdownTimeout: a.shutdownTimeout,
		shutdownHooks:   a.shutdownHooks,
		baseCtx:         ctx,
	})
}

// setupRoutes configures the outer router: real client IP, HTTP-level
// middleware, health endpoints, and the kernel for everything else.
func (a *App) setupRoutes() {
	a.router.Use(middleware.RealIP)
	for _, mw := range a.httpMiddlewares {
		a.router.Use(mw)
	}

	if a.healthConfig != nil {
		a.router.Get(a.healthConfig.livenessPath, health.LivenessHandler())
		a.router.Get(a.healthConfig.readinessPath, health.ReadinessHandler(
			a.healthConfig.checks,
			health.WithLogger(a.logger),
		))
	}

	a.router.Handle("/*", a.kernel)
	a.router.NotFound(a.kernel.ServeHTTP)
	a.router.MethodNotAllowed(a.kernel.ServeHTTP)
}

func closeHook(c io.Closer) func(context.Context) error {
	return func(context.Context) error {
		return c.Close()
	}
}

// healthConfig holds health check endpoint configuration.
type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

// Default health check paths.
const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath sets a custom liveness endpoint path.
// Defaults to "/health/live".
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets a custom readiness endpoint path.
// Defaults to "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check.
// Checks run in parallel during readiness probe.
//
// Example:
//
//	waypoint.WithReadinessCheck("db", db.Healthcheck(pool))
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if c.checks == nil {
			c.checks = make(health.Checks)
		}
		c.checks[name] = fn
	}
}
