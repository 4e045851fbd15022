package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/qaapi/internal/flagx"
	"github.com/dmitrijs2005/qaapi/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations accept "30m" style
// strings or integer nanoseconds. Absent keys keep the current value.
type JsonConfig struct {
	EndpointAddrHTTP             string            `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string            `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string            `json:"database_dsn"`
	SecretKey                    string            `json:"secret_key"`
	TokenIssuer                  string            `json:"token_issuer"`
	AccessTokenValidityDuration  timex.Duration    `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration    `json:"refresh_token_validity_duration"`
	PasswordHashAlgorithm        string            `json:"password_hash_algorithm"`
	BcryptCost                   int               `json:"bcrypt_cost"`
	MaxConcurrentHashes          int               `json:"max_concurrent_hashes"`
	RateLimit                    *int              `json:"rate_limit"`
	RateLimitPeriod              timex.Duration    `json:"rate_limit_period"`
	RedisAddr                    string            `json:"redis_addr"`
	RedisPassword                string            `json:"redis_password"`
	CORSAllowedOrigins           []string          `json:"cors_allowed_origins"`
	SeedUsers                    *bool             `json:"seed_users"`
	APIKeys                      map[string]string `json:"api_keys"`
	LogLevel                     string            `json:"log_level"`
	LogFormat                    string            `json:"log_format"`
}

// parseJson overlays values from the JSON file named by -c/-config (or the
// CONFIG variable). It panics when the file cannot be read or parsed.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.TokenIssuer, c.TokenIssuer)
	setString(&config.PasswordHashAlgorithm, c.PasswordHashAlgorithm)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.RateLimitPeriod.Duration > 0 {
		config.RateLimitPeriod = c.RateLimitPeriod.Duration
	}
	if c.BcryptCost > 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.MaxConcurrentHashes > 0 {
		config.MaxConcurrentHashes = c.MaxConcurrentHashes
	}
	if c.RateLimit != nil {
		config.RateLimit = *c.RateLimit
	}
	if c.SeedUsers != nil {
		config.SeedUsers = *c.SeedUsers
	}
	if c.CORSAllowedOrigins != nil {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
	if len(c.APIKeys) > 0 {
		config.APIKeys = c.APIKeys
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
