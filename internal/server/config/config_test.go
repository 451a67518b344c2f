package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, ":8080", cfg.EndpointAddr)
	assert.NotEmpty(t, cfg.DatabaseDSN)
	assert.Equal(t, 24*time.Hour, cfg.MediaURLTTL)
	assert.Equal(t, int64(100<<20), cfg.MediaMaxBytes)
}

func TestParseJson_Overlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"endpoint_addr": ":9999",
		"secret_key": "from-json",
		"media_url_ttl": "1h"
	}`), 0o600))

	oldArgs := os.Args
	os.Args = []string{"server", "-c", path}
	t.Cleanup(func() { os.Args = oldArgs })

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, ":9999", cfg.EndpointAddr)
	assert.Equal(t, "from-json", cfg.SecretKey)
	assert.Equal(t, time.Hour, cfg.MediaURLTTL)
	// untouched fields keep defaults
	assert.Equal(t, "encrypted-media", cfg.S3Bucket)
}

func TestParseFlags_OverridesJson(t *testing.T) {
	oldArgs := os.Args
	os.Args = []string{"server", "-a", ":7777", "-k", "from-flag"}
	t.Cleanup(func() { os.Args = oldArgs })

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, ":7777", cfg.EndpointAddr)
	assert.Equal(t, "from-flag", cfg.SecretKey)
}
