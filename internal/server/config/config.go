// Package config handles configuration for the API server. Values are
// layered: built-in defaults, then an optional JSON file (-c/-config or
// CONFIG), then environment variables (a .env file is honoured), then
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds runtime settings for the API server.
//
// An empty DatabaseDSN selects the in-memory credential store; an empty
// RedisAddr selects the in-memory rate limiter.
type Config struct {
	EndpointAddrHTTP             string
	EndpointAddrGRPC             string
	DatabaseDSN                  string
	SecretKey                    string
	TokenIssuer                  string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	PasswordHashAlgorithm        string
	BcryptCost                   int
	MaxConcurrentHashes          int
	RateLimit                    int
	RateLimitPeriod              time.Duration
	RedisAddr                    string
	RedisPassword                string
	CORSAllowedOrigins           []string
	SeedUsers                    bool
	APIKeys                      map[string]string
	LogLevel                     string
	LogFormat                    string
}

const insecureDefaultSecret = "your-secret-key-change-in-production"

// LoadDefaults populates Config with development defaults.
// NOTE: the secret key must be overridden outside local development.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8000"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = insecureDefaultSecret
	c.TokenIssuer = ""
	c.AccessTokenValidityDuration = 30 * time.Minute
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.PasswordHashAlgorithm = "bcrypt"
	c.BcryptCost = 12
	c.MaxConcurrentHashes = 0
	c.RateLimit = 100
	c.RateLimitPeriod = 60 * time.Second
	c.RedisAddr = ""
	c.RedisPassword = ""
	c.CORSAllowedOrigins = []string{"*"}
	c.SeedUsers = true
	c.APIKeys = map[string]string{}
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// InsecureSecret reports whether the built-in development secret is in use.
func (c *Config) InsecureSecret() bool {
	return c.SecretKey == insecureDefaultSecret
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.EndpointAddrHTTP == "" && c.EndpointAddrGRPC == "" {
		errs = append(errs, errors.New("at least one of the HTTP or gRPC endpoints must be set"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key must not be empty"))
	}
	if c.AccessTokenValidityDuration <= 0 || c.RefreshTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("token validity durations must be positive"))
	}
	if c.RateLimit < 0 || (c.RateLimit > 0 && c.RateLimitPeriod <= 0) {
		errs = append(errs, fmt.Errorf("invalid rate limit %d per %s", c.RateLimit, c.RateLimitPeriod))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
