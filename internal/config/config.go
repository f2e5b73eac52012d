// Package config provides configuration types and defaults for artemisia.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/KaelanRichards/artemisia/internal/tracing"
)

// Config holds all configuration options for artemisia.
type Config struct {
	History HistoryConfig  `mapstructure:"history"`
	Graph   GraphConfig    `mapstructure:"graph"`
	Cache   CacheConfig    `mapstructure:"cache"`
	Log     LogConfig      `mapstructure:"log"`
	Watch   WatchConfig    `mapstructure:"watch"`
	Tracing tracing.Config `mapstructure:"tracing"`
}

// HistoryConfig bounds the undo/redo stack.
type HistoryConfig struct {
	// MaxSteps is the number of commands kept. Older entries are evicted.
	MaxSteps int `mapstructure:"max_steps"`
}

// GraphConfig tunes graph evaluation.
type GraphConfig struct {
	// MaxDepth bounds evaluation recursion depth.
	MaxDepth int `mapstructure:"max_depth"`
}

// CacheConfig tunes the render artifact cache.
type CacheConfig struct {
	// Enabled turns artifact memoization on.
	Enabled bool `mapstructure:"enabled"`

	// TTLSeconds is how long an artifact stays cached.
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

// LogConfig controls the structured log output.
type LogConfig struct {
	// Enabled turns file logging on.
	Enabled bool `mapstructure:"enabled"`

	// Path is the log file location. Empty means ./artemisia.log.
	Path string `mapstructure:"path"`

	// Level is the minimum level written: debug, info, warn, error.
	Level string `mapstructure:"level"`
}

// WatchConfig tunes the document file watcher.
type WatchConfig struct {
	// DebounceMs collapses bursts of file events into one reload.
	DebounceMs int `mapstructure:"debounce_ms"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		History: HistoryConfig{MaxSteps: 100},
		Graph:   GraphConfig{MaxDepth: 256},
		Cache:   CacheConfig{Enabled: true, TTLSeconds: 300},
		Log:     LogConfig{Enabled: false, Level: "info"},
		Watch:   WatchConfig{DebounceMs: 250},
		Tracing: tracing.DefaultConfig(),
	}
}

// Validate checks cross-field constraints a typo'd config file could break.
func (c Config) Validate() error {
	if c.History.MaxSteps < 1 {
		return fmt.Errorf("history.max_steps must be at least 1, got %d", c.History.MaxSteps)
	}
	if c.Graph.MaxDepth < 1 {
		return fmt.Errorf("graph.max_depth must be at least 1, got %d", c.Graph.MaxDepth)
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.ttl_seconds cannot be negative, got %d", c.Cache.TTLSeconds)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	return nil
}

// DefaultConfigPath returns ~/.config/artemisia/config.yaml, or an empty
// string when the home directory is unavailable.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "artemisia", "config.yaml")
}

// WriteDefaultConfig writes the default configuration as YAML to path,
// creating parent directories. Existing files are left alone.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	out, err := yaml.Marshal(defaultsFileShape())
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}
	if err := os.WriteFile(path, out, 0600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// defaultsFileShape mirrors Defaults() with yaml keys matching the
// mapstructure tags viper reads back.
func defaultsFileShape() map[string]any {
	d := Defaults()
	return map[string]any{
		"history": map[string]any{"max_steps": d.History.MaxSteps},
		"graph":   map[string]any{"max_depth": d.Graph.MaxDepth},
		"cache": map[string]any{
			"enabled":     d.Cache.Enabled,
			"ttl_seconds": d.Cache.TTLSeconds,
		},
		"log": map[string]any{
			"enabled": d.Log.Enabled,
			"path":    d.Log.Path,
			"level":   d.Log.Level,
		},
		"watch": map[string]any{"debounce_ms": d.Watch.DebounceMs},
		"tracing": map[string]any{
			"enabled":       d.Tracing.Enabled,
			"exporter":      d.Tracing.Exporter,
			"file_path":     d.Tracing.FilePath,
			"otlp_endpoint": d.Tracing.OTLPEndpoint,
			"sample_rate":   d.Tracing.SampleRate,
			"service_name":  d.Tracing.ServiceName,
		},
	}
}
