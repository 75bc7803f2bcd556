package config

import (
	"time"

	"github.com/verdantlabs/gardensync/internal/agent/cas"
)

// Config holds runtime settings for the field agent.
//
// Fields:
//   - RelayerURL: base URL of the attestation relayer (write path).
//   - IndexerURL: URL of the attestation indexer (read path).
//   - DatabasePath: on-device SQLite file, ":memory:" for throwaway runs.
//   - Storage: S3-compatible endpoint for media/metadata pinning.
//   - ChainID: ledger network id mixed into content hashes.
//   - SessionSecret: HMAC key used to validate session tokens.
//   - DedupWindow: how long a content hash blocks duplicate submissions.
//   - RetentionWindow: how long completed jobs are kept before cleanup.
//   - IncludeMediaInHash: whether attachment bytes contribute to the
//     content hash.
//
// Units: all intervals are time.Duration values.
type Config struct {
	RelayerURL   string
	IndexerURL   string
	DatabasePath string

	Storage cas.Config

	ChainID       int64
	SessionSecret string

	OnlineCheckInterval time.Duration
	DrainInterval       time.Duration
	DedupWindow         time.Duration
	RetentionWindow     time.Duration

	IncludeMediaInHash bool
}

// LoadDefaults populates c with sensible defaults for a local stack.
func (c *Config) LoadDefaults() {
	c.RelayerURL = "http://127.0.0.1:8545"
	c.IndexerURL = "http://127.0.0.1:8000/graphql"
	c.DatabasePath = "gardensync.db"
	c.Storage = cas.Config{
		Endpoint: "http://127.0.0.1:9000",
		Region:   "us-east-1",
		Bucket:   "gardensync-media",
	}
	c.ChainID = 1
	c.OnlineCheckInterval = 3 * time.Second
	c.DrainInterval = 15 * time.Second
	c.DedupWindow = 24 * time.Hour
	c.RetentionWindow = 7 * 24 * time.Hour
	c.IncludeMediaInHash = false
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the environment (including an optional .env file), a JSON file (if
// present) and command-line flags. Later sources take precedence over
// earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
