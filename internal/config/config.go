// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"identity_backend/internal/platform/crypto"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MinBcryptCost is the lowest password hashing work factor the service accepts.
const MinBcryptCost = 12

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode              string `mapstructure:"GIN_MODE"`
	ServerHost           string `mapstructure:"SERVER_HOST"`
	ServerPort           string `mapstructure:"SERVER_PORT"`
	ServerTimeoutSeconds int    `mapstructure:"SERVER_TIMEOUT_SECONDS"`
	CORSAllowedOrigins   string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// Database Configuration
	DBDriver                 string `mapstructure:"DB_DRIVER"` // "postgres" or "sqlite"
	DBHost                   string `mapstructure:"DB_HOST"`
	DBPort                   string `mapstructure:"DB_PORT"`
	DBUser                   string `mapstructure:"DB_USER"`
	DBPassword               string `mapstructure:"DB_PASSWORD"`
	DBName                   string `mapstructure:"DB_NAME"`
	DBSSLMode                string `mapstructure:"DB_SSL_MODE"`
	DBTimezone               string `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns           int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns           int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetimeMinutes int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	DBSQLitePath             string `mapstructure:"DB_SQLITE_PATH"`
	DBAutoMigrate            bool   `mapstructure:"DB_AUTO_MIGRATE"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Tokens
	JWTSecret            string `mapstructure:"JWT_SECRET"`
	EphemeralJWTSecret   bool   `mapstructure:"-"` // set when Validate generated JWTSecret
	JWTExpiresSeconds    int    `mapstructure:"JWT_EXPIRES_TIME"`
	JWTIssuer            string `mapstructure:"JWT_ISSUER"`
	RefreshTokenTTLDays  int    `mapstructure:"REFRESH_TOKEN_TTL_DAYS"`
	BcryptCost           int    `mapstructure:"BCRYPT_COST"`
	AccessTokenCookie    string `mapstructure:"ACCESS_TOKEN_COOKIE"`
	RefreshTokenCookie   string `mapstructure:"REFRESH_TOKEN_COOKIE"`
	AccessCookieTTLSecs  int    `mapstructure:"ACCESS_COOKIE_TTL_SECONDS"`
	RefreshCookieTTLDays int    `mapstructure:"REFRESH_COOKIE_TTL_DAYS"`
	CookieSecure         bool   `mapstructure:"COOKIE_SECURE"`
	CookieDomain         string `mapstructure:"COOKIE_DOMAIN"`

	// OAuth Configuration
	GoogleClientID            string `mapstructure:"OAUTH_GOOGLE_ID"`
	GoogleClientSecret        string `mapstructure:"OAUTH_GOOGLE_SECRET"`
	GoogleRedirectURI         string `mapstructure:"OAUTH_GOOGLE_REDIRECT_URL"`
	FacebookClientID          string `mapstructure:"OAUTH_FACEBOOK_ID"`
	FacebookClientSecret      string `mapstructure:"OAUTH_FACEBOOK_SECRET"`
	FacebookRedirectURI       string `mapstructure:"OAUTH_FACEBOOK_REDIRECT_URL"`
	OAuthStateCookieName      string `mapstructure:"OAUTH_STATE_COOKIE_NAME"`
	OAuthCookieMaxAgeMinutes  int    `mapstructure:"OAUTH_COOKIE_MAX_AGE_MINUTES"`

	// Uploads
	UploadDir       string `mapstructure:"UPLOAD_DIR"`
	UserImageFolder string `mapstructure:"USER_IMAGE_FOLDER"`
	ImagePrefix     string `mapstructure:"IMAGE_PREFIX"`

	// Cron Jobs
	RefreshTokenCleanupSchedule string `mapstructure:"REFRESH_TOKEN_CLEANUP_SCHEDULE"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "identity_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)
	v.SetDefault("DB_SQLITE_PATH", "identity.db")
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRES_TIME", 3600)
	v.SetDefault("JWT_ISSUER", "identity_backend")
	v.SetDefault("REFRESH_TOKEN_TTL_DAYS", 30)
	v.SetDefault("BCRYPT_COST", MinBcryptCost)
	v.SetDefault("ACCESS_TOKEN_COOKIE", "jt")
	v.SetDefault("REFRESH_TOKEN_COOKIE", "rt")
	v.SetDefault("ACCESS_COOKIE_TTL_SECONDS", 3600)
	v.SetDefault("REFRESH_COOKIE_TTL_DAYS", 30)
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("COOKIE_DOMAIN", "")

	v.SetDefault("OAUTH_GOOGLE_ID", "")
	v.SetDefault("OAUTH_GOOGLE_SECRET", "")
	v.SetDefault("OAUTH_GOOGLE_REDIRECT_URL", "http://localhost:8080/api/google/redirect")
	v.SetDefault("OAUTH_FACEBOOK_ID", "")
	v.SetDefault("OAUTH_FACEBOOK_SECRET", "")
	v.SetDefault("OAUTH_FACEBOOK_REDIRECT_URL", "http://localhost:8080/api/facebook/redirect")
	v.SetDefault("OAUTH_STATE_COOKIE_NAME", "oauth_state")
	v.SetDefault("OAUTH_COOKIE_MAX_AGE_MINUTES", 10)

	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("USER_IMAGE_FOLDER", "users")
	v.SetDefault("IMAGE_PREFIX", "img")

	// Empty schedule keeps expired refresh tokens in the table.
	v.SetDefault("REFRESH_TOKEN_CLEANUP_SCHEDULE", "")
}

// Validate checks the settings the auth core relies on.
func (c *Config) Validate() error {
	if c.BcryptCost < MinBcryptCost {
		return fmt.Errorf("BCRYPT_COST must be at least %d, got %d", MinBcryptCost, c.BcryptCost)
	}
	if c.JWTExpiresSeconds <= 0 {
		return fmt.Errorf("JWT_EXPIRES_TIME must be a positive number of seconds, got %d", c.JWTExpiresSeconds)
	}
	if c.RefreshTokenTTLDays <= 0 {
		return fmt.Errorf("REFRESH_TOKEN_TTL_DAYS must be positive, got %d", c.RefreshTokenTTLDays)
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}

	if strings.TrimSpace(c.JWTSecret) == "" {
		if c.GinMode == "release" {
			return fmt.Errorf("JWT_SECRET must be set in release mode")
		}
		// Per-process secret: tokens die with the process and nothing
		// published can sign them.
		secret, err := crypto.GenerateSecureRandomString(48)
		if err != nil {
			return fmt.Errorf("generate development JWT secret: %w", err)
		}
		c.JWTSecret = secret
		c.EphemeralJWTSecret = true
	}
	if c.GinMode == "release" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
	}
	return nil
}

// ServerTimeout is the graceful shutdown budget.
func (c *Config) ServerTimeout() time.Duration {
	return time.Duration(c.ServerTimeoutSeconds) * time.Second
}

// DBConnMaxLifetime converts the configured minutes into a duration.
func (c *Config) DBConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetimeMinutes) * time.Minute
}

// AccessTokenTTL is the lifetime of a signed access token.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWTExpiresSeconds) * time.Second
}

// RefreshTokenTTL is the validity window of an opaque refresh token.
func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLDays) * 24 * time.Hour
}

// AccessCookieTTL is how long the browser keeps the access token cookie.
func (c *Config) AccessCookieTTL() time.Duration {
	return time.Duration(c.AccessCookieTTLSecs) * time.Second
}

// RefreshCookieTTL is how long the browser keeps the refresh token cookie.
func (c *Config) RefreshCookieTTL() time.Duration {
	return time.Duration(c.RefreshCookieTTLDays) * 24 * time.Hour
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas. An empty setting
// allows no cross-origin callers.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// PostgresDSN builds the GORM postgres DSN from the individual DB_* settings.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode, c.DBTimezone)
}
