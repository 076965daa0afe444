package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DevSecret is the signing secret used when none is configured.
const DevSecret = "dev-secret"

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Bootstrap BootstrapConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name    string `env:"APP_NAME" envDefault:"auth-service"`
	Env     string `env:"APP_ENV" envDefault:"development"`
	Host    string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port    string `env:"APP_PORT" envDefault:"8000"`
	Version string `env:"APP_VERSION" envDefault:"dev"`
}

// HTTPConfig holds transport settings.
type HTTPConfig struct {
	RequestTimeoutSeconds int      `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
	CORSAllowOrigins      []string `env:"HTTP_CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

// DatabaseConfig holds the user directory connection values.
type DatabaseConfig struct {
	URL            string `env:"DATABASE_URL" envDefault:"sqlite://./auth.db"`
	MaxConns       int32  `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	MinConns       int32  `env:"DATABASE_MIN_CONNS" envDefault:"2"`
	RunMigrations  bool   `env:"DATABASE_RUN_MIGRATIONS" envDefault:"true"`
	ConnMaxIdleSec int32  `env:"DATABASE_CONN_MAX_IDLE_SECONDS" envDefault:"30"`
	ConnMaxLifeSec int32  `env:"DATABASE_CONN_MAX_LIFE_SECONDS" envDefault:"300"`
}

// RedisConfig holds Redis connection values. REDIS_URL takes precedence over
// the discrete fields; leaving both URL and Addr empty disables Redis.
type RedisConfig struct {
	URL      string `env:"REDIS_URL"`
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	SecretKey             string `env:"AUTH_SECRET_KEY" envDefault:"dev-secret"`
	AccessTokenTTLMinutes int    `env:"AUTH_ACCESS_TOKEN_TTL_MINUTES" envDefault:"30"`
	TokenFormat           string `env:"AUTH_TOKEN_FORMAT" envDefault:"jwt"`
	PasswordAlgorithm     string `env:"AUTH_PASSWORD_ALGORITHM" envDefault:"bcrypt"`
	BcryptCost            int    `env:"AUTH_BCRYPT_COST" envDefault:"12"`
}

// BootstrapConfig seeds the first administrator when the directory is empty.
type BootstrapConfig struct {
	AdminEmail    string `env:"FIRST_SUPERUSER_EMAIL"`
	AdminPassword string `env:"FIRST_SUPERUSER_PASSWORD"`
}

// Load reads configuration from the process environment, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFrom parses configuration from the given variables only.
func LoadFrom(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.SecretKey) == "" {
		return errors.New("AUTH_SECRET_KEY must not be empty")
	}
	if c.Auth.SecretKey == DevSecret && !c.App.IsDevelopment() {
		return fmt.Errorf("AUTH_SECRET_KEY must be set when APP_ENV=%s", c.App.Env)
	}
	switch c.Auth.TokenFormat {
	case "jwt", "paseto":
	default:
		return fmt.Errorf("invalid AUTH_TOKEN_FORMAT %q", c.Auth.TokenFormat)
	}
	switch c.Auth.PasswordAlgorithm {
	case "bcrypt", "argon2id":
	default:
		return fmt.Errorf("invalid AUTH_PASSWORD_ALGORITHM %q", c.Auth.PasswordAlgorithm)
	}
	if _, err := c.Database.Driver(); err != nil {
		return err
	}
	if (c.Bootstrap.AdminEmail == "") != (c.Bootstrap.AdminPassword == "") {
		return errors.New("FIRST_SUPERUSER_EMAIL and FIRST_SUPERUSER_PASSWORD must be set together")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsDevelopment reports whether the service runs in a local environment.
func (a AppConfig) IsDevelopment() bool {
	switch strings.ToLower(a.Env) {
	case "development", "dev", "local", "test":
		return true
	}
	return false
}

// RequestTimeout returns the configured request timeout duration.
func (h HTTPConfig) RequestTimeout() time.Duration {
	if h.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(h.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the session token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	if a.AccessTokenTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// Directory drivers selected by DATABASE_URL scheme.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Driver resolves the directory backend from the URL scheme.
func (d DatabaseConfig) Driver() (string, error) {
	u, err := url.Parse(d.URL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
		return DriverPostgres, nil
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "memory":
		return DriverMemory, nil
	default:
		return "", fmt.Errorf("unsupported DATABASE_URL scheme %q", u.Scheme)
	}
}

// SQLitePath returns the file path of a sqlite:// URL.
// Both sqlite://./auth.db and sqlite:///./auth.db resolve to ./auth.db.
func (d DatabaseConfig) SQLitePath() string {
	rest := d.URL
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if strings.HasPrefix(rest, "/./") {
		rest = rest[1:]
	}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
