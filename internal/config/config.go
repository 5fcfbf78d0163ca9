// Package config provides configuration management for apiluck.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Defaults applied before the config file and environment are read.
const (
	DefaultListenAddr     = ":8080"
	DefaultDatabaseURL    = "apiluck.db"
	DefaultMaxConns       = 4
	DefaultFeedURL        = "https://www.1.bot/api/data?type=cq"
	DefaultPollInterval   = 5 * time.Second
	DefaultFeedTimeout    = 10 * time.Second
	DefaultAnalysisWindow = 100
	DefaultHistoryLimit   = 20
	DefaultModelPath      = "model.json"
	DefaultLogLevel       = "info"

	// DefaultConfigFile is read when APILUCK_CONFIG is not set.
	DefaultConfigFile = "apiluck.yaml"
)

// Config holds all runtime settings. Values resolve in three layers:
// defaults, then the YAML config file, then environment overrides.
// DATABASE_URL is deliberately unprefixed; hosting platforms inject it
// under that exact name, and a postgres:// value selects the Postgres
// driver instead of SQLite.
type Config struct {
	ListenAddr     string        `yaml:"listen_addr"     env:"APILUCK_LISTEN_ADDR"`
	DatabaseURL    string        `yaml:"database_url"    env:"DATABASE_URL"`
	MaxConns       int           `yaml:"max_conns"       env:"APILUCK_MAX_CONNS"`
	FeedURL        string        `yaml:"feed_url"        env:"APILUCK_FEED_URL"`
	PollInterval   time.Duration `yaml:"poll_interval"   env:"APILUCK_POLL_INTERVAL"`
	FeedTimeout    time.Duration `yaml:"feed_timeout"    env:"APILUCK_FEED_TIMEOUT"`
	AnalysisWindow int           `yaml:"analysis_window" env:"APILUCK_ANALYSIS_WINDOW"`
	HistoryLimit   int           `yaml:"history_limit"   env:"APILUCK_HISTORY_LIMIT"`
	ModelPath      string        `yaml:"model_path"      env:"APILUCK_MODEL_PATH"`
	LogLevel       string        `yaml:"log_level"       env:"APILUCK_LOG_LEVEL"`
	OTELEndpoint   string        `yaml:"otel_endpoint"   env:"APILUCK_OTEL_ENDPOINT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:     DefaultListenAddr,
		DatabaseURL:    DefaultDatabaseURL,
		MaxConns:       DefaultMaxConns,
		FeedURL:        DefaultFeedURL,
		PollInterval:   DefaultPollInterval,
		FeedTimeout:    DefaultFeedTimeout,
		AnalysisWindow: DefaultAnalysisWindow,
		HistoryLimit:   DefaultHistoryLimit,
		ModelPath:      DefaultModelPath,
		LogLevel:       DefaultLogLevel,
	}
}

// Load builds the effective configuration. An empty path falls back to
// APILUCK_CONFIG, then DefaultConfigFile. A missing config file is not
// an error; an unreadable one degrades to defaults with a warning so a
// typo cannot keep the service down.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("APILUCK_CONFIG")
	}
	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults plus env only.
	case err != nil:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Config file unparseable, using defaults")
			cfg = Default()
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.clamp()
	return cfg, nil
}

// clamp resets empty or non-positive settings to their defaults. An
// env var that is set but empty counts as unset.
func (c *Config) clamp() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = DefaultDatabaseURL
	}
	if c.FeedURL == "" {
		c.FeedURL = DefaultFeedURL
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.MaxConns <= 0 {
		c.MaxConns = DefaultMaxConns
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.FeedTimeout <= 0 {
		c.FeedTimeout = DefaultFeedTimeout
	}
	if c.AnalysisWindow <= 0 {
		c.AnalysisWindow = DefaultAnalysisWindow
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = DefaultHistoryLimit
	}
}
