// Package config loads runtime configuration for the messaging CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the relay server
//	-b string   path to the local key database
//	-m string   directory for decrypted media files
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so values can be
// either strings like "15s" or integer nanoseconds:
//
//	{
//	  "server_base_url": "https://messaging.techconhub.internal",
//	  "key_db_path": "/home/me/.config/techconhub/keys.db",
//	  "media_cache_dir": "/tmp/techconhub-media",
//	  "request_timeout": "15s"
//	}
//
// Primary API
//
//   - type Config                     — server URL, key DB path, media cache dir, timeout
//   - func LoadConfig() *Config       — builds Config by applying defaults, JSON, then flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
