package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DefaultProgressInterval = 500 * time.Millisecond
	DefaultSeekStep         = 0.05
	DefaultReleaseTimeout   = 2 * time.Second
	DefaultLogLevel         = "info"
)

type Config struct {
	Source string `koanf:"source"` // media URI to open when none is given on the command line

	Playback PlaybackConfig `koanf:"playback"`
	Log      LogConfig      `koanf:"log"`

	// Prometheus exposition (disabled when listen is empty)
	Metrics MetricsConfig `koanf:"metrics"`

	// Resume history
	History HistoryConfig `koanf:"history"`

	MPRIS         *bool `koanf:"mpris"`         // expose an MPRIS player on the session bus (default: true)
	Notifications *bool `koanf:"notifications"` // desktop notification on playback failure (default: true)
}

// PlaybackConfig holds controller tuning.
type PlaybackConfig struct {
	ProgressInterval time.Duration `koanf:"progress_interval"` // e.g. "500ms"
	SeekStep         float64       `koanf:"seek_step"`         // fraction of the duration per seek key (default: 0.05)
	ReleaseTimeout   time.Duration `koanf:"release_timeout"`   // how long shutdown waits for the engine (default: 2s)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error
	File  string `koanf:"file"`  // default: $XDG_STATE_HOME/vplay/vplay.log
}

// MetricsConfig holds the metrics endpoint configuration.
type MetricsConfig struct {
	Listen string `koanf:"listen"` // e.g. "127.0.0.1:9464"
}

// HistoryConfig holds resume history configuration.
type HistoryConfig struct {
	Enabled *bool  `koanf:"enabled"` // record last position per source (default: true)
	Resume  *bool  `koanf:"resume"`  // seek to the recorded position on start (default: false)
	Path    string `koanf:"path"`    // default: $XDG_DATA_HOME/vplay/history.db
}

// Load reads the default config files. Missing files are skipped.
func Load() (*Config, error) {
	return LoadFrom(getConfigPaths()...)
}

// LoadFrom reads the given TOML files in order; later files win.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Source = expandPath(cfg.Source)
	cfg.Log.File = expandPath(cfg.Log.File)
	cfg.History.Path = expandPath(cfg.History.Path)

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/vplay/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "vplay", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetPlaybackConfig returns the playback configuration with defaults applied.
func (c *Config) GetPlaybackConfig() PlaybackConfig {
	cfg := c.Playback

	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = DefaultProgressInterval
	}
	if cfg.SeekStep <= 0 || cfg.SeekStep > 1 {
		cfg.SeekStep = DefaultSeekStep
	}
	if cfg.ReleaseTimeout <= 0 {
		cfg.ReleaseTimeout = DefaultReleaseTimeout
	}

	return cfg
}

// LogLevel returns the configured level, or "info".
func (c *Config) LogLevel() string {
	if c.Log.Level == "" {
		return DefaultLogLevel
	}
	return c.Log.Level
}

// HasMetrics returns true if the metrics endpoint is configured.
func (c *Config) HasMetrics() bool {
	return c.Metrics.Listen != ""
}

// HistoryEnabled returns whether positions are recorded (default: true).
func (c *Config) HistoryEnabled() bool {
	return boolOr(c.History.Enabled, true)
}

// ResumeEnabled returns whether playback resumes at the recorded position
// (default: false). It implies HistoryEnabled.
func (c *Config) ResumeEnabled() bool {
	return c.HistoryEnabled() && boolOr(c.History.Resume, false)
}

// MPRISEnabled returns whether the MPRIS player is exposed (default: true).
func (c *Config) MPRISEnabled() bool {
	return boolOr(c.MPRIS, true)
}

// NotificationsEnabled returns whether failures raise a desktop
// notification (default: true).
func (c *Config) NotificationsEnabled() bool {
	return boolOr(c.Notifications, true)
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
