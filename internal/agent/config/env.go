package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from environment variables. A .env
// file in the working directory is loaded first if present; real
// environment variables win over .env entries (godotenv does not override
// variables that are already set).
//
// Recognized variables:
//
//	GARDENSYNC_RELAYER_URL, GARDENSYNC_INDEXER_URL, GARDENSYNC_DB
//	GARDENSYNC_S3_ENDPOINT, GARDENSYNC_S3_REGION, GARDENSYNC_S3_BUCKET
//	GARDENSYNC_S3_ACCESS_KEY, GARDENSYNC_S3_SECRET_KEY
//	GARDENSYNC_CHAIN_ID, GARDENSYNC_SESSION_SECRET
//	GARDENSYNC_ONLINE_CHECK_INTERVAL, GARDENSYNC_DRAIN_INTERVAL
//	GARDENSYNC_DEDUP_WINDOW, GARDENSYNC_RETENTION_WINDOW
//	GARDENSYNC_HASH_MEDIA
//
// Durations use time.ParseDuration syntax ("15s", "24h").
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}

	setString("GARDENSYNC_RELAYER_URL", &cfg.RelayerURL)
	setString("GARDENSYNC_INDEXER_URL", &cfg.IndexerURL)
	setString("GARDENSYNC_DB", &cfg.DatabasePath)
	setString("GARDENSYNC_S3_ENDPOINT", &cfg.Storage.Endpoint)
	setString("GARDENSYNC_S3_REGION", &cfg.Storage.Region)
	setString("GARDENSYNC_S3_BUCKET", &cfg.Storage.Bucket)
	setString("GARDENSYNC_S3_ACCESS_KEY", &cfg.Storage.AccessKey)
	setString("GARDENSYNC_S3_SECRET_KEY", &cfg.Storage.SecretKey)
	setString("GARDENSYNC_SESSION_SECRET", &cfg.SessionSecret)

	if v, ok := os.LookupEnv("GARDENSYNC_CHAIN_ID"); ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(err)
		}
		cfg.ChainID = id
	}
	if v, ok := os.LookupEnv("GARDENSYNC_HASH_MEDIA"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		cfg.IncludeMediaInHash = b
	}

	setDuration("GARDENSYNC_ONLINE_CHECK_INTERVAL", &cfg.OnlineCheckInterval)
	setDuration("GARDENSYNC_DRAIN_INTERVAL", &cfg.DrainInterval)
	setDuration("GARDENSYNC_DEDUP_WINDOW", &cfg.DedupWindow)
	setDuration("GARDENSYNC_RETENTION_WINDOW", &cfg.RetentionWindow)
}
