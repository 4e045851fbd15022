package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	t.Setenv(EnvHTTPAddr, ":9000")
	t.Setenv(EnvSecretKey, "from-env")
	t.Setenv(EnvAccessTTL, "45")
	t.Setenv(EnvRefreshTTL, "2h")
	t.Setenv(EnvRateLimit, "7")
	t.Setenv(EnvRateLimitPeriod, "5")
	t.Setenv(EnvSeedUsers, "false")
	t.Setenv(EnvCORSOrigins, "http://a, http://b")
	t.Setenv(EnvAPIKeys, "k1=reporting, k2=billing")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, ":9000", c.EndpointAddrHTTP)
	assert.Equal(t, "from-env", c.SecretKey)
	assert.False(t, c.InsecureSecret())
	assert.Equal(t, 45*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 2*time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, 7, c.RateLimit)
	assert.Equal(t, 5*time.Second, c.RateLimitPeriod)
	assert.False(t, c.SeedUsers)
	assert.Equal(t, []string{"http://a", "http://b"}, c.CORSAllowedOrigins)
	assert.Equal(t, map[string]string{"k1": "reporting", "k2": "billing"}, c.APIKeys)
	assert.Equal(t, ":50051", c.EndpointAddrGRPC, "unset variables keep defaults")
}

func TestParseEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		EnvBcryptCost: "high",
		EnvSeedUsers:  "sometimes",
		EnvAPIKeys:    "missing-service",
		EnvAccessTTL:  "later",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			var c Config
			c.LoadDefaults()
			require.Panics(t, func() { parseEnv(&c) })
		})
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"secret_key":         "from-json",
		"endpoint_addr_http": ":7000",
		"database_dsn":       "json-dsn",
	})
	t.Setenv(EnvSecretKey, "from-env")
	t.Setenv(EnvDatabaseDSN, "env-dsn")
	os.Args = []string{"testbin", "-c", path, "-d", "flag-dsn"}

	c := LoadConfig()

	assert.Equal(t, ":7000", c.EndpointAddrHTTP, "json over defaults")
	assert.Equal(t, "from-env", c.SecretKey, "env over json")
	assert.Equal(t, "flag-dsn", c.DatabaseDSN, "flags over env")
}
