package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/verdantlabs/gardensync/internal/flagx"
	"github.com/verdantlabs/gardensync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so intervals can be specified either as strings like "15s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config.
type JsonConfig struct {
	RelayerURL   string `json:"relayer_url"`
	IndexerURL   string `json:"indexer_url"`
	DatabasePath string `json:"database_path"`

	S3Endpoint  string `json:"s3_endpoint"`
	S3Region    string `json:"s3_region"`
	S3Bucket    string `json:"s3_bucket"`
	S3AccessKey string `json:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key"`

	ChainID       *int64 `json:"chain_id"`
	SessionSecret string `json:"session_secret"`

	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	DrainInterval       *timex.Duration `json:"drain_interval"`
	DedupWindow         *timex.Duration `json:"dedup_window"`
	RetentionWindow     *timex.Duration `json:"retention_window"`

	IncludeMediaInHash *bool `json:"include_media_in_hash"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags via flagx.JsonConfigFlags(); if
// neither is set, nothing is loaded. Absent JSON fields leave the earlier
// layers untouched. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString := func(src string, dst *string) {
		if src != "" {
			*dst = src
		}
	}
	setDuration := func(src *timex.Duration, dst *time.Duration) {
		if src != nil {
			*dst = src.Duration
		}
	}

	setString(jc.RelayerURL, &cfg.RelayerURL)
	setString(jc.IndexerURL, &cfg.IndexerURL)
	setString(jc.DatabasePath, &cfg.DatabasePath)
	setString(jc.S3Endpoint, &cfg.Storage.Endpoint)
	setString(jc.S3Region, &cfg.Storage.Region)
	setString(jc.S3Bucket, &cfg.Storage.Bucket)
	setString(jc.S3AccessKey, &cfg.Storage.AccessKey)
	setString(jc.S3SecretKey, &cfg.Storage.SecretKey)
	setString(jc.SessionSecret, &cfg.SessionSecret)

	if jc.ChainID != nil {
		cfg.ChainID = *jc.ChainID
	}
	if jc.IncludeMediaInHash != nil {
		cfg.IncludeMediaInHash = *jc.IncludeMediaInHash
	}

	setDuration(jc.OnlineCheckInterval, &cfg.OnlineCheckInterval)
	setDuration(jc.DrainInterval, &cfg.DrainInterval)
	setDuration(jc.DedupWindow, &cfg.DedupWindow)
	setDuration(jc.RetentionWindow, &cfg.RetentionWindow)
}
