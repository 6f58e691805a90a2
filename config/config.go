package config

import (
	"time"

	"github.com/pitabwire/frame"
)

type CredentialConfig struct {
	frame.ConfigurationDefault

	// Error handling configuration
	// When true, detailed error messages are shown to callers (useful for development)
	// When false, generic messages are shown and details are only logged
	ExposeErrors bool `envDefault:"false" env:"EXPOSE_ERRORS"`

	// Rate limit state backend. Leave RedisURI empty to run the single
	// instance in memory store.
	RedisURI       string `envDefault:""            env:"REDIS_URI"`
	CacheKeyPrefix string `envDefault:"credentials" env:"CACHE_KEY_PREFIX"`

	// Login brute force protection
	RateLimitMaxFailedAttempts int   `envDefault:"5"    env:"RATE_LIMIT_MAX_FAILED_ATTEMPTS"`
	RateLimitTrackingWindow    int64 `envDefault:"1800" env:"RATE_LIMIT_TRACKING_WINDOW_SECONDS"`
	RateLimitBlockDuration     int64 `envDefault:"900"  env:"RATE_LIMIT_BLOCK_DURATION_SECONDS"`

	// Session lifetimes in seconds; zero falls back to channel defaults
	SessionWebDuration      int64 `envDefault:"604800"  env:"SESSION_WEB_DURATION"`
	SessionRememberDuration int64 `envDefault:"2592000" env:"SESSION_REMEMBER_DURATION"`
	SessionApiDuration      int64 `envDefault:"86400"   env:"SESSION_API_DURATION"`

	// Bearer token signing
	TokenIssuer        string `envDefault:"service_credentials" env:"TOKEN_ISSUER"`
	TokenSigningSecret string `envDefault:""                    env:"TOKEN_SIGNING_SECRET"`

	CsrfSecret string `envDefault:"f80105efab6d863fd8fc243d269094469e2277e8f12e5a0a9f401e88494f7b4b" env:"CSRF_SECRET"`

	SecureCookieHashKey  string `envDefault:"d1f4f1a3b8d84f79e6d4b8b5c3f04725a8a7d6b4c2f9a987d5e4f3a2b1c086d1" env:"SECURE_COOKIE_HASH_KEY"`
	SecureCookieBlockKey string `envDefault:"a7e7b4f8d2e5a3c1f0b6d9d4f3a5c20798d1c1e7c4f6a3e4b0e5c2f4a7d6b301" env:"SECURE_COOKIE_BLOCK_KEY"`
}

func (c *CredentialConfig) RateLimitConfig() (int, time.Duration, time.Duration) {
	return c.RateLimitMaxFailedAttempts,
		time.Duration(c.RateLimitTrackingWindow) * time.Second,
		time.Duration(c.RateLimitBlockDuration) * time.Second
}

// SessionTTLs returns the configured web, remember-me and api session lifetimes.
func (c *CredentialConfig) SessionTTLs() (time.Duration, time.Duration, time.Duration) {
	return time.Duration(c.SessionWebDuration) * time.Second,
		time.Duration(c.SessionRememberDuration) * time.Second,
		time.Duration(c.SessionApiDuration) * time.Second
}
