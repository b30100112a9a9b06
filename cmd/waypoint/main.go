// Command waypoint serves a sample application on the dispatch kernel:
// declarative YAML routes, session login against a SQL identity store,
// and role or permission guarded pages and API endpoints.
package main

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrymomot/waypoint"
	"github.com/dmitrymomot/waypoint/middlewares"
	"github.com/dmitrymomot/waypoint/pkg/db"
	"github.com/dmitrymomot/waypoint/pkg/identity"
	"github.com/dmitrymomot/waypoint/pkg/logger"
	"github.com/dmitrymomot/waypoint/pkg/password"
	"github.com/dmitrymomot/waypoint/pkg/redis"
	"github.com/dmitrymomot/waypoint/pkg/session"
)

//go:embed routes/*.yaml
var routeFiles embed.FS

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "waypoint:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.Log, middlewares.RequestIDExtractor()).With("component", "waypoint")

	opts := []waypoint.Option{
		waypoint.WithCustomLogger(log),
		waypoint.WithAddress(cfg.Address),
		waypoint.WithAPIPrefix(cfg.APIPrefix),
		waypoint.WithLoginPath(cfg.LoginPath),
		waypoint.WithHomePath(cfg.HomePath),
		waypoint.WithShutdownTimeout(30 * time.Second),
		waypoint.WithSessionOptions(
			waypoint.WithSessionCookieName(cfg.SessionCookie),
			waypoint.WithSessionMaxAge(cfg.SessionMaxAge),
			waypoint.WithSessionSecure(cfg.SessionSecure),
			waypoint.WithSessionDomain(cfg.SessionDomain),
			waypoint.WithSessionSecret(cfg.SessionSecret),
		),
	}

	users, userOpts, err := openIdentities(ctx, cfg, log)
	if err != nil {
		return err
	}
	opts = append(opts, userOpts...)

	sessionOpts, err := openSessions(ctx, cfg)
	if err != nil {
		return err
	}
	opts = append(opts, sessionOpts...)

	var routes waypoint.Option
	if cfg.RoutesDir != "" {
		routes = waypoint.WithRouteDir(cfg.RoutesDir)
	} else {
		routes = waypoint.WithRouteFS(routeFiles, "routes")
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	opts = append(opts,
		routes,
		waypoint.WithController("Home", homeController{}),
		waypoint.WithController("Auth", authController{}),
		waypoint.WithController("Dashboard", dashboardController{}),
		waypoint.WithController("Admin", adminController{users: users}),
		waypoint.WithController("Api", apiController{}),
		waypoint.WithHTTPMiddleware(
			middlewares.RequestID(),
			middlewares.Timeout(timeout),
		),
		waypoint.WithMiddleware(
			middlewares.Recover(),
			middlewares.GatewayTimeout(timeout),
		),
	)

	app, err := waypoint.New(opts...)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}

type identityBackend interface {
	identity.Store
	identity.Writer
}

// openIdentities connects the identity store: PostgreSQL when DATABASE_URL
// is set, the embedded SQLite database otherwise. Migrations and the
// optional seed run before the server starts.
func openIdentities(ctx context.Context, cfg config, log *slog.Logger) (identity.Store, []waypoint.Option, error) {
	var (
		store  identityBackend
		health func(context.Context) error
		closer func(context.Context) error
	)

	if cfg.DB.Postgres() {
		pool, err := db.Connect(ctx, cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.MigratePool(ctx, pool, identity.PostgresMigrations, cfg.DB.MigrationsTable, log); err != nil {
			pool.Close()
			return nil, nil, err
		}
		store, health, closer = identity.NewPostgresStore(pool), db.Healthcheck(pool), db.Shutdown(pool)
		log.Info("identity store ready", "backend", "postgres")
	} else {
		conn, err := db.OpenSQLite(ctx, cfg.DB.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := db.Migrate(ctx, conn, db.DialectSQLite, identity.SQLiteMigrations, cfg.DB.MigrationsTable, log); err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		store, health, closer = identity.NewSQLiteStore(conn), db.SQLHealthcheck(conn), db.SQLShutdown(conn)
		log.Info("identity store ready", "backend", "sqlite", "path", cfg.DB.SQLitePath)
	}

	if err := seed(ctx, cfg, store); err != nil {
		return nil, nil, err
	}

	return store, []waypoint.Option{
		waypoint.WithIdentityStore(store),
		waypoint.WithPasswordVerifier(password.Default),
		waypoint.WithHealthChecks(waypoint.WithReadinessCheck("identity", health)),
		waypoint.WithShutdownHook(closer),
	}, nil
}

// openSessions selects the Redis session backend when REDIS_URL is set.
// Without it the app falls back to its in-memory default.
func openSessions(ctx context.Context, cfg config) ([]waypoint.Option, error) {
	if !cfg.Redis.Enabled() {
		return nil, nil
	}

	client, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	return []waypoint.Option{
		waypoint.WithSessionStore(session.NewRedisStore(client, session.WithRedisPrefix(cfg.Redis.Prefix))),
		waypoint.WithHealthChecks(
			waypoint.WithReadinessCheck("sessions", redis.Healthcheck(client)),
		),
		waypoint.WithShutdownHook(redis.Shutdown(client)),
	}, nil
}

func seed(ctx context.Context, cfg config, w identity.Writer) error {
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		return nil
	}

	hash, err := password.Hash(cfg.SeedAdminPassword)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	return identity.Seed(ctx, w,
		[]identity.Role{
			{Name: "admin", Permissions: identity.EncodePermissions("users.read", "users.write")},
			{Name: "member", Permissions: identity.EncodePermissions()},
		},
		[]identity.SeedUser{
			{Email: cfg.SeedAdminEmail, Name: "Administrator", PasswordHash: hash, Role: "admin"},
		},
	)
}
