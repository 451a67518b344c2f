package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the messaging CLI.
//
// Fields:
//   - ServerBaseURL: base URL of the relay's HTTP endpoint.
//   - KeyDBPath: path to the local SQLite database holding conversation keys.
//   - MediaCacheDir: directory for decrypted media handed to viewers.
//   - RequestTimeout: per-request timeout for transport calls.
type Config struct {
	ServerBaseURL  string
	KeyDBPath      string
	MediaCacheDir  string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults. The key database lives
// under the user config directory so keys survive reinstalls.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 15 * time.Second

	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	c.KeyDBPath = filepath.Join(base, "techconhub", "keys.db")
	c.MediaCacheDir = filepath.Join(os.TempDir(), "techconhub-media")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
