package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// HistoryConfig represents invocation history configuration
type HistoryConfig struct {
	// Enabled records every spawned command in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database; empty means <sift home>/history.db
	DBPath string `yaml:"db_path"`
}

// Config represents sift configuration options
type Config struct {
	// Threads is the number of concurrent --exec workers (0 = one per CPU)
	Threads int `yaml:"threads"`

	// BatchSize caps the paths per --exec-batch invocation (0 = no limit)
	BatchSize int `yaml:"batch_size"`

	// LogLevel sets the diagnostic verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// Hidden includes hidden files and directories in the search
	Hidden bool `yaml:"hidden"`

	// Follow traverses symbolic links
	Follow bool `yaml:"follow"`

	// ShowErrors reports unreadable directories and broken entries
	ShowErrors bool `yaml:"show_errors"`

	// History contains invocation history configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Threads:    0,
		BatchSize:  0,
		LogLevel:   "warn",
		Hidden:     false,
		Follow:     false,
		ShowErrors: false,
		History: HistoryConfig{
			Enabled: false,
			DBPath:  "",
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Pointer fields tell an explicit false or zero apart from an absent key.
	type yamlConfig struct {
		Threads    *int    `yaml:"threads"`
		BatchSize  *int    `yaml:"batch_size"`
		LogLevel   *string `yaml:"log_level"`
		Hidden     *bool   `yaml:"hidden"`
		Follow     *bool   `yaml:"follow"`
		ShowErrors *bool   `yaml:"show_errors"`
		History    *struct {
			Enabled *bool   `yaml:"enabled"`
			DBPath  *string `yaml:"db_path"`
		} `yaml:"history"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.Threads != nil {
		cfg.Threads = *yamlCfg.Threads
	}
	if yamlCfg.BatchSize != nil {
		cfg.BatchSize = *yamlCfg.BatchSize
	}
	if yamlCfg.LogLevel != nil {
		cfg.LogLevel = *yamlCfg.LogLevel
	}
	if yamlCfg.Hidden != nil {
		cfg.Hidden = *yamlCfg.Hidden
	}
	if yamlCfg.Follow != nil {
		cfg.Follow = *yamlCfg.Follow
	}
	if yamlCfg.ShowErrors != nil {
		cfg.ShowErrors = *yamlCfg.ShowErrors
	}
	if h := yamlCfg.History; h != nil {
		if h.Enabled != nil {
			cfg.History.Enabled = *h.Enabled
		}
		if h.DBPath != nil {
			cfg.History.DBPath = *h.DBPath
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .sift/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".sift", "config.yaml"))
}

// Load resolves the configuration file to use. An explicit path wins; then
// .sift/config.yaml in the working directory; then config.yaml in the sift
// home directory.
func Load(explicit string) (*Config, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		return LoadConfig(explicit)
	}

	if cwd, err := os.Getwd(); err == nil {
		if _, err := os.Stat(filepath.Join(cwd, ".sift", "config.yaml")); err == nil {
			return LoadConfigFromDir(cwd)
		}
	}

	home, err := SiftHome()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(filepath.Join(home, "config.yaml"))
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
// This allows CLI flags to take precedence over config file settings
func (c *Config) MergeWithFlags(threads *int, batchSize *int, logLevel *string, hidden *bool, follow *bool, showErrors *bool) {
	if threads != nil {
		c.Threads = *threads
	}
	if batchSize != nil {
		c.BatchSize = *batchSize
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if hidden != nil {
		c.Hidden = *hidden
	}
	if follow != nil {
		c.Follow = *follow
	}
	if showErrors != nil {
		c.ShowErrors = *showErrors
	}
}

// EffectiveThreads returns the worker count, resolving 0 to the CPU count.
func (c *Config) EffectiveThreads() int {
	if c.Threads > 0 {
		return c.Threads
	}
	if n := runtime.NumCPU(); n > 1 {
		return n
	}
	return 1
}

// HistoryDBPath returns the configured history database path or the default
// location under the sift home directory.
func (c *Config) HistoryDBPath() (string, error) {
	if c.History.DBPath != "" {
		return c.History.DBPath, nil
	}
	home, err := SiftHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "history.db"), nil
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if c.Threads < 0 {
		return fmt.Errorf("threads must be >= 0, got %d", c.Threads)
	}

	if c.BatchSize < 0 {
		return fmt.Errorf("batch_size must be >= 0, got %d", c.BatchSize)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	return nil
}
