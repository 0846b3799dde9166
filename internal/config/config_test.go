package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/fwt/internal/config"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "fwt")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(content), 0o644))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.Defaults.DB)
	assert.Nil(t, cfg.Defaults.ICase)
	assert.Empty(t, cfg.Defaults.Exclude)
	assert.Nil(t, cfg.Theme.Green)
}

func TestLoad_FullConfig(t *testing.T) {
	writeConfig(t, `
[defaults]
db = "/srv/fwt.db"
icase = true
exclude = ["node_modules/", "*.tmp", "!keep.tmp"]
strict = false
time_tolerance = "3s"
batch_size = 500
preserve_times = true
bwlimit = "50M"
color = "never"

[theme]
green = "#00ff00"
red = "#ff0000"
`)

	cfg, err := config.Load()
	require.NoError(t, err)

	require.NotNil(t, cfg.Defaults.DB)
	assert.Equal(t, "/srv/fwt.db", *cfg.Defaults.DB)

	require.NotNil(t, cfg.Defaults.ICase)
	assert.True(t, *cfg.Defaults.ICase)

	assert.Equal(t, []string{"node_modules/", "*.tmp", "!keep.tmp"}, cfg.Defaults.Exclude)

	require.NotNil(t, cfg.Defaults.Strict)
	assert.False(t, *cfg.Defaults.Strict)

	tol, err := cfg.Defaults.Tolerance()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, tol)

	require.NotNil(t, cfg.Defaults.BatchSize)
	assert.Equal(t, 500, *cfg.Defaults.BatchSize)

	require.NotNil(t, cfg.Defaults.PreserveTimes)
	assert.True(t, *cfg.Defaults.PreserveTimes)

	require.NotNil(t, cfg.Defaults.BWLimit)
	assert.Equal(t, "50M", *cfg.Defaults.BWLimit)

	require.NotNil(t, cfg.Defaults.Color)
	assert.Equal(t, "never", *cfg.Defaults.Color)

	require.NotNil(t, cfg.Theme.Green)
	assert.Equal(t, "#00ff00", *cfg.Theme.Green)

	// Unset fields should remain nil.
	assert.Nil(t, cfg.Theme.Blue)
	assert.Nil(t, cfg.Theme.Bright)
}

func TestLoad_PartialConfig(t *testing.T) {
	writeConfig(t, `
[theme]
bright = "#ffffff"
`)

	cfg, err := config.Load()
	require.NoError(t, err)

	// Defaults section entirely absent.
	assert.Nil(t, cfg.Defaults.DB)
	assert.Nil(t, cfg.Defaults.BatchSize)
	tol, err := cfg.Defaults.Tolerance()
	require.NoError(t, err)
	assert.Zero(t, tol)

	require.NotNil(t, cfg.Theme.Bright)
	assert.Equal(t, "#ffffff", *cfg.Theme.Bright)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"syntax":        "invalid [[[",
		"unknown key":   "[defaults]\nworkers = 4\n",
		"bad tolerance": "[defaults]\ntime_tolerance = \"soon\"\n",
		"negative":      "[defaults]\ntime_tolerance = \"-1s\"\n",
		"batch size":    "[defaults]\nbatch_size = 0\n",
		"color":         "[defaults]\ncolor = \"sometimes\"\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			writeConfig(t, content)
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/fwt/config.toml", config.Path())
}
