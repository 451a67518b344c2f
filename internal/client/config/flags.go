package config

import (
	"flag"
	"os"

	"github.com/techconhub/messaging/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the relay server (default from Config)
//	-b string   path to the local key database
//	-m string   directory for decrypted media files
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-b", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "base URL of the relay server")
	fs.StringVar(&cfg.KeyDBPath, "b", cfg.KeyDBPath, "path to the local key database")
	fs.StringVar(&cfg.MediaCacheDir, "m", cfg.MediaCacheDir, "directory for decrypted media files")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
