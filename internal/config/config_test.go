package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:8000", cfg.App.Addr())
	require.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenTTL())
	require.Equal(t, "jwt", cfg.Auth.TokenFormat)
	require.Equal(t, "bcrypt", cfg.Auth.PasswordAlgorithm)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.CORSAllowOrigins)
	require.Equal(t, 30*time.Second, cfg.HTTP.RequestTimeout())

	driver, err := cfg.Database.Driver()
	require.NoError(t, err)
	require.Equal(t, DriverSQLite, driver)
	require.Equal(t, "./auth.db", cfg.Database.SQLitePath())
}

func TestLoadFromOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"APP_PORT":                      "9090",
		"AUTH_SECRET_KEY":               "s3cret",
		"AUTH_ACCESS_TOKEN_TTL_MINUTES": "5",
		"AUTH_TOKEN_FORMAT":             "paseto",
		"AUTH_PASSWORD_ALGORITHM":       "argon2id",
		"DATABASE_URL":                  "postgres://user:pw@localhost:5432/auth",
		"HTTP_CORS_ALLOW_ORIGINS":       "http://a.test,http://b.test",
	})
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.App.Port)
	require.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL())
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.CORSAllowOrigins)

	driver, err := cfg.Database.Driver()
	require.NoError(t, err)
	require.Equal(t, DriverPostgres, driver)
}

func TestValidateRejectsBadSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown token format":  {"AUTH_TOKEN_FORMAT": "opaque"},
		"unknown hash":          {"AUTH_PASSWORD_ALGORITHM": "md5"},
		"unknown db scheme":     {"DATABASE_URL": "mysql://localhost/auth"},
		"dev secret in prod":    {"APP_ENV": "production"},
		"half bootstrap config": {"FIRST_SUPERUSER_EMAIL": "root@example.com"},
	}
	for name, environ := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(environ)
			require.Error(t, err)
		})
	}
}

func TestSQLitePathForms(t *testing.T) {
	require.Equal(t, "./auth.db", DatabaseConfig{URL: "sqlite:///./auth.db"}.SQLitePath())
	require.Equal(t, "/var/lib/auth.db", DatabaseConfig{URL: "sqlite:///var/lib/auth.db"}.SQLitePath())
	require.Equal(t, "./auth.db", DatabaseConfig{URL: "sqlite://./auth.db?cache=shared"}.SQLitePath())
}
