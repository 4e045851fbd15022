package config

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/qaapi/internal/flagx"
)

// Environment variables read by parseEnv.
const (
	EnvHTTPAddr        = "HTTP_ADDR"
	EnvGRPCAddr        = "GRPC_ADDR"
	EnvDatabaseDSN     = "DATABASE_DSN"
	EnvSecretKey       = "SECRET_KEY"
	EnvTokenIssuer     = "TOKEN_ISSUER"
	EnvAccessTTL       = "ACCESS_TOKEN_EXPIRE_MINUTES"
	EnvRefreshTTL      = "REFRESH_TOKEN_EXPIRE_MINUTES"
	EnvHashAlgorithm   = "PASSWORD_HASH_ALGORITHM"
	EnvBcryptCost      = "BCRYPT_COST"
	EnvMaxHashes       = "MAX_CONCURRENT_HASHES"
	EnvRateLimit       = "RATE_LIMIT_REQUESTS"
	EnvRateLimitPeriod = "RATE_LIMIT_PERIOD_SECONDS"
	EnvRedisAddr       = "REDIS_ADDR"
	EnvRedisPassword   = "REDIS_PASSWORD"
	EnvCORSOrigins     = "CORS_ORIGINS"
	EnvSeedUsers       = "SEED_USERS"
	EnvAPIKeys         = "API_KEYS"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
)

// parseEnv overlays values from the environment. It panics on values that
// cannot be parsed, matching the other sources.
func parseEnv(config *Config) {
	flagx.EnvString(EnvHTTPAddr, &config.EndpointAddrHTTP)
	flagx.EnvString(EnvGRPCAddr, &config.EndpointAddrGRPC)
	flagx.EnvString(EnvDatabaseDSN, &config.DatabaseDSN)
	flagx.EnvString(EnvSecretKey, &config.SecretKey)
	flagx.EnvString(EnvTokenIssuer, &config.TokenIssuer)
	flagx.EnvString(EnvHashAlgorithm, &config.PasswordHashAlgorithm)
	flagx.EnvString(EnvRedisAddr, &config.RedisAddr)
	flagx.EnvString(EnvRedisPassword, &config.RedisPassword)
	flagx.EnvString(EnvLogLevel, &config.LogLevel)
	flagx.EnvString(EnvLogFormat, &config.LogFormat)
	flagx.EnvList(EnvCORSOrigins, &config.CORSAllowedOrigins)

	var apiKeys []string
	flagx.EnvList(EnvAPIKeys, &apiKeys)

	err := errors.Join(
		flagx.EnvDuration(EnvAccessTTL, time.Minute, &config.AccessTokenValidityDuration),
		flagx.EnvDuration(EnvRefreshTTL, time.Minute, &config.RefreshTokenValidityDuration),
		flagx.EnvDuration(EnvRateLimitPeriod, time.Second, &config.RateLimitPeriod),
		flagx.EnvInt(EnvBcryptCost, &config.BcryptCost),
		flagx.EnvInt(EnvMaxHashes, &config.MaxConcurrentHashes),
		flagx.EnvInt(EnvRateLimit, &config.RateLimit),
		flagx.EnvBool(EnvSeedUsers, &config.SeedUsers),
		mergeAPIKeys(config, apiKeys),
	)
	if err != nil {
		panic(err)
	}
}

// mergeAPIKeys adds "key=service" pairs to config.APIKeys.
func mergeAPIKeys(config *Config, pairs []string) error {
	if len(pairs) == 0 {
		return nil
	}
	if config.APIKeys == nil {
		config.APIKeys = make(map[string]string, len(pairs))
	}
	for _, p := range pairs {
		key, service, ok := strings.Cut(p, "=")
		key, service = strings.TrimSpace(key), strings.TrimSpace(service)
		if !ok || key == "" || service == "" {
			return errors.New("env " + EnvAPIKeys + ": expected key=service pairs")
		}
		config.APIKeys[key] = service
	}
	return nil
}
