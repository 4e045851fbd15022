package config

import "time"

// Config holds runtime settings for the qaapi test client.
//
// Fields:
//   - ServerBaseURL: scheme://host:port of the REST API.
//   - RequestTimeout: per-attempt HTTP timeout.
//   - MaxRetries / RetryBaseDelay: exponential backoff for transport
//     errors, 429 and 5xx responses (delays double from RetryBaseDelay).
//   - SessionDBPath: SQLite file holding the saved login session.
//   - OnlineCheckInterval: how often the REPL probes /health.
type Config struct {
	ServerBaseURL       string
	RequestTimeout      time.Duration
	MaxRetries          int
	RetryBaseDelay      time.Duration
	SessionDBPath       string
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8000"
	c.RequestTimeout = 30 * time.Second
	c.MaxRetries = 3
	c.RetryBaseDelay = time.Second
	c.SessionDBPath = "qaapi_session.db"
	c.OnlineCheckInterval = 5 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
