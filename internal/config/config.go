// Package config loads server settings from the process environment.
//
// A .env file in the working directory, if present, is loaded first. Variables
// already set in the environment win over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config holds every setting the server reads at start-up.
type Config struct {
	Port   int    `env:"PORT"   envDefault:"3000"`
	Secret string `env:"SECRET"`

	// Google OAuth client. Google sign-in is disabled unless both are set.
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	CallbackURL  string `env:"CALLBACK_URL"`

	SessionTTL   time.Duration `env:"SESSION_TTL"    envDefault:"24h"`
	SecureCookie bool          `env:"SECURE_COOKIE"  envDefault:"false"`

	StoreDriver   string `env:"STORE_DRIVER"   envDefault:"sqlite"`
	DBPath        string `env:"DB_PATH"        envDefault:"data/secrets.db"`
	MongoURI      string `env:"MONGO_URI"      envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"userDB"`

	TemplateDir string `env:"TEMPLATE_DIR" envDefault:"web/templates"`
	StaticDir   string `env:"STATIC_DIR"   envDefault:"web/static"`

	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads .env (optional) and the environment, fills defaults and validates.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: reading .env: %w", err)
	}
	return Parse()
}

// Parse reads the environment only.
func Parse() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}

	if cfg.CallbackURL == "" {
		cfg.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/google/home", cfg.Port)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that have no usable default.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.Secret == "" {
		errs = append(errs, errors.New("SECRET is required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL))
	}
	switch c.StoreDriver {
	case DriverSQLite, DriverMongo:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q must be %q or %q", c.StoreDriver, DriverSQLite, DriverMongo))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// GoogleEnabled reports whether the Google OAuth client is configured.
func (c Config) GoogleEnabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}
