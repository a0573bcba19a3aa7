package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) string {
	// Change to temp dir so no config.yaml is found
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.internet.bs", cfg.Registrar.BaseURL)
	assert.Equal(t, "https://www.googleapis.com/customsearch/v1", cfg.Search.BaseURL)
	assert.Equal(t, "https://web.archive.org", cfg.Archive.BaseURL)
	assert.Equal(t, 50, cfg.Archive.CDXLimit)
	assert.Equal(t, "sqlite", cfg.Journal.Driver)
	assert.Equal(t, 5, cfg.Run.Concurrency)
	assert.Equal(t, 5, cfg.Run.MaxScreenshots)
	assert.Equal(t, "degrade", cfg.Run.OnProviderFailure)
	assert.True(t, cfg.Run.DedupeDomains)
	assert.Equal(t, "output", cfg.Run.OutputDir)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
registrar:
  key: testkey
  password: testpass
journal:
  driver: postgres
  database_url: postgres://localhost/domainhound
run:
  concurrency: 10
  max_screenshots: 2
  on_provider_failure: abort
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "testkey", cfg.Registrar.Key)
	assert.Equal(t, "postgres", cfg.Journal.Driver)
	assert.Equal(t, 10, cfg.Run.Concurrency)
	assert.Equal(t, 2, cfg.Run.MaxScreenshots)
	assert.Equal(t, "abort", cfg.Run.OnProviderFailure)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, 50, cfg.Archive.CDXLimit)
	assert.Equal(t, "https://api.internet.bs", cfg.Registrar.BaseURL)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
run:
  concurrency: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))
	t.Setenv("DOMAINHOUND_RUN_CONCURRENCY", "12")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Run.Concurrency)
}

func TestLoad_InvalidFailurePolicy(t *testing.T) {
	chTempDir(t)
	t.Setenv("DOMAINHOUND_RUN_ON_PROVIDER_FAILURE", "explode")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "on_provider_failure")
}

func TestLoad_InvalidJournalDriver(t *testing.T) {
	chTempDir(t)
	t.Setenv("DOMAINHOUND_JOURNAL_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "driver")
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.Error(t, InitLogger(LogConfig{Level: "verbose", Format: "json"}))
}
