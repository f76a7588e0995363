package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnvs(t, map[string]string{"GIN_MODE": "debug", "JWT_SECRET": "", "CORS_ALLOWED_ORIGINS": ""})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, MinBcryptCost, cfg.BcryptCost)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL())
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTokenTTL())
	assert.Equal(t, "jt", cfg.AccessTokenCookie)
	assert.Equal(t, "rt", cfg.RefreshTokenCookie)
	assert.Equal(t, time.Hour, cfg.AccessCookieTTL())
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshCookieTTL())
	assert.GreaterOrEqual(t, len(cfg.JWTSecret), 32)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins())
	assert.True(t, cfg.EphemeralJWTSecret)
	assert.Empty(t, cfg.RefreshTokenCleanupSchedule)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setEnvs(t, map[string]string{
		"GIN_MODE":             "debug",
		"JWT_SECRET":           "a-secret-from-the-environment-0123456789",
		"JWT_EXPIRES_TIME":     "120",
		"DB_DRIVER":            "sqlite",
		"COOKIE_SECURE":        "true",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "a-secret-from-the-environment-0123456789", cfg.JWTSecret)
	assert.Equal(t, 2*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
}

func TestLoad_MissingSecretIsRandomPerLoad(t *testing.T) {
	setEnvs(t, map[string]string{"GIN_MODE": "", "JWT_SECRET": ""})

	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)

	assert.True(t, first.EphemeralJWTSecret)
	assert.NotEqual(t, first.JWTSecret, second.JWTSecret)
	assert.NotContains(t, first.JWTSecret, "dev-only")
}

func TestLoad_ExplicitSecretIsKept(t *testing.T) {
	setEnvs(t, map[string]string{"GIN_MODE": "debug", "JWT_SECRET": "short-dev-secret"})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "short-dev-secret", cfg.JWTSecret)
	assert.False(t, cfg.EphemeralJWTSecret)
}

func TestLoad_Release_RequiresSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"GIN_MODE":   "release",
		"JWT_SECRET": "",
	})

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET must be set")
}

func TestLoad_Release_RejectsShortSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"GIN_MODE":   "release",
		"JWT_SECRET": "too-short",
	})

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")
}

func TestLoad_RejectsWeakBcryptCost(t *testing.T) {
	setEnvs(t, map[string]string{
		"GIN_MODE":    "debug",
		"BCRYPT_COST": "10",
	})

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BCRYPT_COST")
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	setEnvs(t, map[string]string{
		"GIN_MODE":  "debug",
		"DB_DRIVER": "mysql",
	})

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
}

func TestAllowedOrigins_EmptyAllowsNone(t *testing.T) {
	cfg := &Config{CORSAllowedOrigins: " , "}
	assert.Empty(t, cfg.AllowedOrigins())
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{
		DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p",
		DBName: "n", DBSSLMode: "disable", DBTimezone: "UTC",
	}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable TimeZone=UTC", cfg.PostgresDSN())
}
