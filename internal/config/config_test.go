package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/voyager/internal/config"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadFile_Defaults(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	cfg, err := config.LoadFile(filepath.Join(home, "missing.toml"), home, nil)
	require.NoError(t, err)

	assert.Equal(t, config.Default(home), cfg)
	assert.Equal(t, filepath.Join(home, ".config", "voyager", "voyager.db"), cfg.DBPath)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Nil(t, loc)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)
}

func TestLoadFile_TOMLThenEnv(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	path := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
workers = 3
top_words = 50
timezone = "UTC"
report_path = "~/reports/discord.html"
db_path = "~/snap.db"
log_level = "info"
`), 0o644))

	cfg, err := config.LoadFile(path, home, env(map[string]string{
		"VOYAGER_WORKERS":    "8",
		"VOYAGER_SEQUENTIAL": "true",
		"VOYAGER_LOG_LEVEL":  "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.Sequential)
	assert.Equal(t, 50, cfg.TopWords)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, filepath.Join(home, "reports", "discord.html"), cfg.ReportPath)
	assert.Equal(t, filepath.Join(home, "snap.db"), cfg.DBPath)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	bad := filepath.Join(home, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("workers = [oops"), 0o644))

	_, err := config.LoadFile(bad, home, nil)
	assert.ErrorContains(t, err, "parse config")

	missing := filepath.Join(home, "none.toml")
	_, err = config.LoadFile(missing, home, env(map[string]string{"VOYAGER_WORKERS": "many"}))
	assert.ErrorContains(t, err, "VOYAGER_WORKERS")

	_, err = config.LoadFile(missing, home, env(map[string]string{"VOYAGER_TIMEZONE": "Mars/Olympus"}))
	assert.ErrorContains(t, err, "timezone")

	_, err = config.LoadFile(missing, home, env(map[string]string{"VOYAGER_LOG_LEVEL": "loud"}))
	assert.ErrorContains(t, err, "log_level")
}

func TestLocation(t *testing.T) {
	t.Parallel()

	loc, err := (&config.Config{Timezone: "local"}).Location()
	require.NoError(t, err)
	assert.Equal(t, "Local", loc.String())

	loc, err = (&config.Config{Timezone: "UTC"}).Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}
