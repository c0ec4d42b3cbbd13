// Package config loads daemon configuration from file, environment, and
// defaults.
//
// Sources are layered lowest to highest: built-in defaults, an optional
// YAML config file, then CADEXEC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultRunnerTimeout   = 5 * time.Minute
	DefaultStoreMaxResults = 1024
	DefaultRuntimeVersion  = "3.11"
	DefaultBasePackage     = "cadquery"
	DefaultLibraryDir      = "part_library"
	DefaultLogLevel        = "info"

	configFileName = "cadexec"
)

// Config holds the daemon's settings.
type Config struct {
	// LibraryDir is the part library directory.
	LibraryDir string `mapstructure:"library_dir"`

	// PreviewDir receives part thumbnails. Defaults to
	// <library_dir>/part_previews.
	PreviewDir string `mapstructure:"preview_dir"`

	// RunnerArgs are passed to the workspace runtime entry point ahead of
	// the envelope, e.g. the path of the runner program.
	RunnerArgs []string `mapstructure:"runner_args"`

	// RunnerTimeout bounds one script build. Zero disables the deadline.
	RunnerTimeout time.Duration `mapstructure:"runner_timeout"`

	// StoreMaxResults caps the in-memory result store; 0 is unbounded.
	StoreMaxResults int `mapstructure:"store_max_results"`

	// RuntimeVersion pins the workspace runtime interpreter version.
	RuntimeVersion string `mapstructure:"runtime_version"`

	// BasePackage is the geometry library installed into every workspace.
	BasePackage string `mapstructure:"base_package"`

	// BridgeCommand starts the geometry bridge subprocess serving kernel
	// operations. Required for export and library tools.
	BridgeCommand string `mapstructure:"bridge_command"`

	// BridgeArgs are passed to the bridge command.
	BridgeArgs []string `mapstructure:"bridge_args"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	if c.RunnerTimeout < 0 {
		return fmt.Errorf("config: runner_timeout must not be negative")
	}
	if c.StoreMaxResults < 0 {
		return fmt.Errorf("config: store_max_results must not be negative")
	}
	return nil
}

// Load reads configuration. An explicit path is used exclusively; otherwise
// a cadexec.yaml in the current directory is used when present, and its
// absence is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("library_dir", DefaultLibraryDir)
	v.SetDefault("runner_timeout", DefaultRunnerTimeout)
	v.SetDefault("store_max_results", DefaultStoreMaxResults)
	v.SetDefault("runtime_version", DefaultRuntimeVersion)
	v.SetDefault("base_package", DefaultBasePackage)
	v.SetDefault("log_level", DefaultLogLevel)

	v.SetEnvPrefix("CADEXEC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read %s.yaml: %w", configFileName, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.PreviewDir == "" && cfg.LibraryDir != "" {
		cfg.PreviewDir = filepath.Join(cfg.LibraryDir, "part_previews")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
