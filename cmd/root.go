// Package cmd wires the artemisia command line interface.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/KaelanRichards/artemisia/internal/config"
	"github.com/KaelanRichards/artemisia/internal/document"
	"github.com/KaelanRichards/artemisia/internal/graph"
	"github.com/KaelanRichards/artemisia/internal/log"
	"github.com/KaelanRichards/artemisia/internal/nodes"
)

var (
	version = "dev"
	cfgFile string
	debug   bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "artemisia",
	Short:   "A node-graph image compositor",
	Long:    `Artemisia evaluates layered node-graph documents into images: sources and filters wired into per-layer graphs, composited bottom to top with blend modes.`,
	Version: version,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/artemisia/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug logging to the configured log file")
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("history.max_steps", defaults.History.MaxSteps)
	viper.SetDefault("graph.max_depth", defaults.Graph.MaxDepth)
	viper.SetDefault("cache.enabled", defaults.Cache.Enabled)
	viper.SetDefault("cache.ttl_seconds", defaults.Cache.TTLSeconds)
	viper.SetDefault("log.enabled", defaults.Log.Enabled)
	viper.SetDefault("log.path", defaults.Log.Path)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .artemisia/config.yaml (current directory)
		// 2. ~/.config/artemisia/config.yaml (user config)
		if _, err := os.Stat(".artemisia/config.yaml"); err == nil {
			viper.SetConfigFile(".artemisia/config.yaml")
		} else if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "artemisia"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if path := config.DefaultConfigPath(); path != "" {
				if writeErr := config.WriteDefaultConfig(path); writeErr == nil {
					viper.SetConfigFile(path)
					_ = viper.ReadInConfig()
				}
			}
		}
	}

	_ = viper.Unmarshal(&cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: invalid config, using defaults: %v\n", err)
		cfg = config.Defaults()
	}
	initLogging()
}

var closeLog func()

func initLogging() {
	if !cfg.Log.Enabled && !debug {
		return
	}
	path := cfg.Log.Path
	if path == "" {
		path = "artemisia.log"
	}
	cleanup, err := log.Init(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v\n", path, err)
		return
	}
	closeLog = cleanup

	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	switch level {
	case "debug":
		log.SetMinLevel(log.LevelDebug)
	case "warn":
		log.SetMinLevel(log.LevelWarn)
	case "error":
		log.SetMinLevel(log.LevelError)
	default:
		log.SetMinLevel(log.LevelInfo)
	}
}

// standardRegistry builds the registry every command reconstructs
// documents through.
func standardRegistry() *graph.Registry {
	reg := graph.NewRegistry()
	nodes.RegisterStandard(reg)
	return reg
}

// loadDocument reads and reconstructs a document file, picking the codec
// from the file extension.
func loadDocument(path string, reg *graph.Registry) (*document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()

	var file *document.DocumentFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		file, err = document.DecodeYAML(f)
	default:
		file, err = document.DecodeJSON(f)
	}
	if err != nil {
		return nil, err
	}
	return document.LoadWithOptions(file, reg, document.LoadOptions{
		MaxHistorySteps: cfg.History.MaxSteps,
		MaxGraphDepth:   cfg.Graph.MaxDepth,
	})
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if closeLog != nil {
		closeLog()
	}
	return err
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
