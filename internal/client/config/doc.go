// Package config loads runtime configuration for the qaapi test client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c / -config or the CONFIG variable.
//  3. Environment: API_BASE_URL.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the REST API
//	-t int      request timeout (seconds)
//	-n int      max retries for transient failures
//	-f string   session database file
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
// Durations accept strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_base_url": "http://127.0.0.1:8000",
//	  "request_timeout": "30s",
//	  "max_retries": 3,
//	  "retry_base_delay": "1s",
//	  "session_db_path": "qaapi_session.db",
//	  "online_check_interval": "5s"
//	}
package config
