package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const envPrefix = "VOYAGER_"

type Config struct {
	Workers    int    `toml:"workers"`
	Sequential bool   `toml:"sequential"`
	TopWords   int    `toml:"top_words"`
	Timezone   string `toml:"timezone"`
	ReportPath string `toml:"report_path"`
	DBPath     string `toml:"db_path"`
	LogLevel   string `toml:"log_level"`
}

// Default returns the built-in settings for the given home directory.
func Default(home string) *Config {
	return &Config{
		TopWords:   100,
		ReportPath: "voyager-report.html",
		DBPath:     filepath.Join(home, ".config", "voyager", "voyager.db"),
		LogLevel:   "warn",
	}
}

// Path is where Load looks for the config file.
func Path(home string) string {
	return filepath.Join(home, ".config", "voyager", "config.toml")
}

// Load reads ~/.config/voyager/config.toml, then .env in the working
// directory, then VOYAGER_* environment variables.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	// a missing .env is fine; values already in the environment win
	_ = godotenv.Load()

	return LoadFile(Path(home), home, os.LookupEnv)
}

// LoadFile layers cfgPath (if it exists) and the environment seen through
// lookup over the defaults.
func LoadFile(cfgPath, home string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default(home)

	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	// expand ~ in paths
	cfg.ReportPath = expandHome(cfg.ReportPath, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	for key, dst := range map[string]*string{
		"TIMEZONE":    &c.Timezone,
		"REPORT_PATH": &c.ReportPath,
		"DB_PATH":     &c.DBPath,
		"LOG_LEVEL":   &c.LogLevel,
	} {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = v
		}
	}
	for key, dst := range map[string]*int{
		"WORKERS":   &c.Workers,
		"TOP_WORDS": &c.TopWords,
	} {
		if v, ok := lookup(envPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("parse %s%s: %w", envPrefix, key, err)
			}
			*dst = n
		}
	}
	if v, ok := lookup(envPrefix + "SEQUENTIAL"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("parse %sSEQUENTIAL: %w", envPrefix, err)
		}
		c.Sequential = b
	}
	return nil
}

// Location resolves Timezone. Empty means nil: timestamps keep the offset
// they were recorded with.
func (c *Config) Location() (*time.Location, error) {
	switch strings.TrimSpace(c.Timezone) {
	case "":
		return nil, nil
	case "local", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Level maps LogLevel onto a slog level.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return lvl, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
