// Package config loads runtime configuration for the field agent.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables, with an optional .env file (see parseEnv).
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-r string   base URL of the attestation relayer
//	-x string   URL of the attestation indexer
//	-d string   path to the on-device SQLite database
//	-i int      online status check interval (seconds)
//	-t int      queue drain interval (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be
// either strings like "15s" or integer nanoseconds:
//
//	{
//	  "relayer_url": "http://127.0.0.1:8545",
//	  "indexer_url": "http://127.0.0.1:8000/graphql",
//	  "database_path": "gardensync.db",
//	  "drain_interval": "15s",
//	  "dedup_window": "24h"
//	}
//
// Primary API
//
//   - type Config                     — runtime settings for the agent
//   - func LoadConfig() *Config       — defaults, then env, JSON, flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
package config
