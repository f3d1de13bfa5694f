package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration, loaded from environment
// variables.
type Config struct {
	// Server
	ServerAddr string `env:"SERVER_ADDR" envDefault:"0.0.0.0"`
	ServerPort int    `env:"SERVER_PORT" envDefault:"8080"`

	// AppBaseURL is the externally reachable base URL used when building
	// links in outgoing email.
	AppBaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// Database
	DBHost           string        `env:"DB_HOST" envDefault:"localhost"`
	DBPort           int           `env:"DB_PORT" envDefault:"5432"`
	DBUser           string        `env:"DB_USER" envDefault:"postgres"`
	DBPassword       string        `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName           string        `env:"DB_NAME" envDefault:"instasora_users"`
	DBSSLMode        string        `env:"DB_SSLMODE" envDefault:"disable"`
	DBConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"5s"`

	// JWT
	JWTSecret     string        `env:"JWT_SECRET"`
	JWTIssuer     string        `env:"JWT_ISSUER" envDefault:"instasora-user-service"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL" envDefault:"1h"`

	// Argon2id parameters
	Argon2Time    uint32 `env:"ARGON2_TIME" envDefault:"1"`
	Argon2Memory  uint32 `env:"ARGON2_MEMORY_KIB" envDefault:"65536"`
	Argon2Threads uint8  `env:"ARGON2_THREADS" envDefault:"4"`

	// SMTP (optional; without a host, outgoing mail is logged and dropped)
	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser      string `env:"SMTP_USER"`
	SMTPPassword  string `env:"SMTP_PASSWORD"`
	MailFrom      string `env:"MAIL_FROM" envDefault:"no-reply@instasora.com"`
	MailFromName  string `env:"MAIL_FROM_NAME" envDefault:"InstaSora"`
	MailQueueSize int    `env:"MAIL_QUEUE_SIZE" envDefault:"64"`

	// OAuth2 providers (each optional)
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string `env:"GOOGLE_REDIRECT_URI"`
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GitHubRedirectURI  string `env:"GITHUB_REDIRECT_URI"`

	RateLimit       RateLimitConfig
	SecurityHeaders SecurityHeadersConfig
	Validation      ValidationConfig
}

// RateLimitConfig holds per-bucket IP rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`

	AuthRequestsPerMinute   int `env:"RATE_LIMIT_AUTH_PER_MINUTE" envDefault:"10"`
	AuthWindowMinutes       int `env:"RATE_LIMIT_AUTH_WINDOW_MINUTES" envDefault:"1"`
	ResetRequestsPerWindow  int `env:"RATE_LIMIT_RESET_PER_WINDOW" envDefault:"3"`
	ResetWindowMinutes      int `env:"RATE_LIMIT_RESET_WINDOW_MINUTES" envDefault:"15"`
	VerifyRequestsPerWindow int `env:"RATE_LIMIT_VERIFY_PER_WINDOW" envDefault:"10"`
	VerifyWindowMinutes     int `env:"RATE_LIMIT_VERIFY_WINDOW_MINUTES" envDefault:"15"`
	ProfileRequestsPerMin   int `env:"RATE_LIMIT_PROFILE_PER_MINUTE" envDefault:"60"`
	ProfileWindowMinutes    int `env:"RATE_LIMIT_PROFILE_WINDOW_MINUTES" envDefault:"1"`
}

// SecurityHeadersConfig holds the OWASP security header values. Empty
// values leave the corresponding header unset.
type SecurityHeadersConfig struct {
	Enabled            bool   `env:"SECURITY_HEADERS_ENABLED" envDefault:"true"`
	CSP                string `env:"SECURITY_CSP" envDefault:"default-src 'none'; frame-ancestors 'none'"`
	HSTSMaxAge         int    `env:"SECURITY_HSTS_MAX_AGE" envDefault:"0"`
	FrameOptions       string `env:"SECURITY_FRAME_OPTIONS" envDefault:"DENY"`
	ContentTypeOptions string `env:"SECURITY_CONTENT_TYPE_OPTIONS" envDefault:"nosniff"`
	XSSProtection      string `env:"SECURITY_XSS_PROTECTION" envDefault:"0"`
	ReferrerPolicy     string `env:"SECURITY_REFERRER_POLICY" envDefault:"no-referrer"`
	PermissionsPolicy  string `env:"SECURITY_PERMISSIONS_POLICY"`
}

// ValidationConfig holds request validation limits.
type ValidationConfig struct {
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &cfg, nil
}

// HasSMTP returns true if an SMTP transport is configured.
func (c *Config) HasSMTP() bool {
	return c.SMTPHost != ""
}

// HasGoogleOAuth returns true if Google OAuth2 is configured.
func (c *Config) HasGoogleOAuth() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// HasGitHubOAuth returns true if GitHub OAuth2 is configured.
func (c *Config) HasGitHubOAuth() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}
