package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "Asia/Kolkata", cfg.ReferenceTimezone)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "badger", cfg.Storage.Backend)
	assert.Equal(t, 25.0, cfg.Engines.Alerts.ConcentrationPct)
	assert.Equal(t, 0.15, cfg.Engines.Tax.STCGRate)
	assert.Equal(t, 100000.0, cfg.Engines.Tax.LTCGExemption)
	assert.InDelta(t, 45, cfg.Engines.Rebalance.Targets["stock"], 0.001)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fintra.toml")
	content := `
environment = "production"

[server]
port = 9090

[storage]
backend = "surrealdb"

[engines.alerts]
concentration_pct = 30
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "surrealdb", cfg.Storage.Backend)
	assert.Equal(t, 30.0, cfg.Engines.Alerts.ConcentrationPct)
	// untouched defaults survive
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadConfig_MissingFileSkipped(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/fintra.toml")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("FINTRA_PORT", "7001")
	t.Setenv("FINTRA_LOG_LEVEL", "debug")
	t.Setenv("FINTRA_STORAGE_BACKEND", "badger")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "badger", cfg.Storage.Backend)
}

func TestLoadConfig_InvalidTimezone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fintra.toml")
	require.NoError(t, os.WriteFile(path, []byte(`reference_timezone = "Mars/Olympus"`), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
