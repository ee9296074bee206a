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
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8001", cfg.ListenAddr)
	assert.Equal(t, 3*time.Second, cfg.TurnTimeout)
	assert.True(t, cfg.AutoscrimEnabled)
	assert.Equal(t, 10*time.Second, cfg.AutoscrimInterval)
	assert.Equal(t, 2*time.Second, cfg.AutoscrimRetry)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	data := `{
		"logLevel": "debug",
		"listenAddr": ":9000",
		"turnTimeoutSeconds": 5,
		"autoscrim": {"enabled": false, "intervalSeconds": 30}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "botduel.cfg.json"), []byte(data), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.TurnTimeout)
	assert.False(t, cfg.AutoscrimEnabled)
	assert.Equal(t, 30*time.Second, cfg.AutoscrimInterval)
	assert.Equal(t, 2*time.Second, cfg.AutoscrimRetry, "unset keys keep defaults")
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "botduel.cfg.json"), []byte("{nope"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}
