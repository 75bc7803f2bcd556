package config

import (
	"flag"
	"os"
	"time"

	"github.com/verdantlabs/gardensync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-r string   base URL of the attestation relayer
//	-x string   URL of the attestation indexer
//	-d string   path to the on-device SQLite database
//	-i int      online check interval in seconds
//	-t int      drain interval in seconds
//
// Note: The function filters os.Args to only include the flags it knows
// about, using flagx.FilterArgs, to avoid interference with other
// components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-r", "-x", "-d", "-i", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.RelayerURL, "r", cfg.RelayerURL, "base URL of the attestation relayer")
	fs.StringVar(&cfg.IndexerURL, "x", cfg.IndexerURL, "URL of the attestation indexer")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local database file")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	drainInterval := fs.Int("t", int(cfg.DrainInterval.Seconds()), "queue drain interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.DrainInterval = time.Duration(*drainInterval) * time.Second
}
