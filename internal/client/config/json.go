package config

import (
	"encoding/json"
	"os"

	"github.com/techconhub/messaging/internal/flagx"
	"github.com/techconhub/messaging/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify the timeout either as a
// string like "15s" or as integer nanoseconds.
type JsonConfig struct {
	ServerBaseURL  string         `json:"server_base_url"`
	KeyDBPath      string         `json:"key_db_path"`
	MediaCacheDir  string         `json:"media_cache_dir"`
	RequestTimeout timex.Duration `json:"request_timeout"`
}

// parseJson overlays cfg with values loaded from the JSON file named by the
// -c/-config flags. A missing file path means no overlay; read or unmarshal
// errors panic (intended usage is: defaults -> parseJson -> parseFlags).
func parseJson(cfg *Config) {
	// Resolve file path from flags.
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

	if jc.ServerBaseURL != "" {
		cfg.ServerBaseURL = jc.ServerBaseURL
	}
	if jc.KeyDBPath != "" {
		cfg.KeyDBPath = jc.KeyDBPath
	}
	if jc.MediaCacheDir != "" {
		cfg.MediaCacheDir = jc.MediaCacheDir
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}
