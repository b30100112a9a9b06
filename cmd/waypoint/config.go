package main

import (
	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/waypoint/pkg/db"
	"github.com/dmitrymomot/waypoint/pkg/logger"
	"github.com/dmitrymomot/waypoint/pkg/redis"
)

// config is populated from the environment.
type config struct {
	Log   logger.Config
	DB    db.Config
	Redis redis.Config

	Address string `env:"ADDRESS" envDefault:":8080"`

	// RoutesDir replaces the embedded route files when set.
	RoutesDir string `env:"ROUTES_DIR"`

	APIPrefix string `env:"API_PREFIX" envDefault:"/api/"`
	LoginPath string `env:"LOGIN_PATH" envDefault:"/login"`
	HomePath  string `env:"HOME_PATH" envDefault:"/"`

	SessionCookie  string `env:"SESSION_COOKIE" envDefault:"__sid"`
	SessionSecret  string `env:"SESSION_SECRET"`
	SessionMaxAge  int    `env:"SESSION_MAX_AGE" envDefault:"2592000"`
	SessionSecure  bool   `env:"SESSION_SECURE" envDefault:"false"`
	SessionDomain  string `env:"SESSION_DOMAIN"`
	RequestTimeout int    `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"30"`

	// Seed provisions the admin and member roles plus an admin user on start.
	SeedAdminEmail    string `env:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword string `env:"SEED_ADMIN_PASSWORD"`
}

func loadConfig() (config, error) {
	return env.ParseAs[config]()
}
