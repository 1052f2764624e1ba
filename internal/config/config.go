// Package config provides unified configuration loading for moideas.
// It supports loading from YAML files, .env files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/nvandessel/moideas/internal/constants"
	"gopkg.in/yaml.v3"
)

// Config contains all moideas configuration settings.
type Config struct {
	// Batch contains settings for sweep execution.
	Batch BatchConfig `json:"batch" yaml:"batch"`

	// Store contains settings for the SQLite results store.
	Store StoreConfig `json:"store" yaml:"store"`

	// Logging contains settings for operational logging and round tracing.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// BatchConfig configures how many simulations are run and where results go.
type BatchConfig struct {
	// Runs is the number of simulations per configuration.
	Runs int `json:"runs" yaml:"runs"`

	// Seed is the batch seed; per-run seeds are derived from it.
	Seed int64 `json:"seed" yaml:"seed"`

	// Workers bounds the number of simulations in flight.
	Workers int `json:"workers" yaml:"workers"`

	// Output is the CSV file summaries are appended to. Empty disables CSV.
	Output string `json:"output" yaml:"output"`
}

// StoreConfig configures result persistence.
type StoreConfig struct {
	// Enabled indicates whether batches are written to the store.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the SQLite database file. Empty means ~/.moideas/moideas.db.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoggingConfig configures moideas's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables round tracing to ~/.moideas/rounds.jsonl.
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Batch: BatchConfig{
			Runs:    constants.DefaultSimCount,
			Seed:    constants.DefaultSeed,
			Workers: runtime.NumCPU(),
			Output:  constants.DefaultResultsCSV,
		},
		Store: StoreConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DataDir returns the moideas data directory (~/.moideas).
func DataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, constants.DataDirName), nil
}

// StorePath returns the configured database path or the default one.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.DatabaseFileName), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.moideas/config.yaml -> .env -> environment variables
func Load() (*Config, error) {
	config := Default()

	// Try to load from default config file
	if dir, err := DataDir(); err == nil {
		configPath := filepath.Join(dir, constants.ConfigFileName)
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	loadEnvFile()
	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Batch.Output = expandEnvVars(config.Batch.Output)
	config.Store.Path = expandEnvVars(config.Store.Path)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Batch.Runs <= 0 {
		return fmt.Errorf("runs must be positive, got %d", c.Batch.Runs)
	}

	if c.Batch.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Batch.Workers)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// loadEnvFile reads the file named by MOIDEAS_ENV (or .env by default)
// into the process environment. Variables already set are not overwritten.
func loadEnvFile() {
	envFile := os.Getenv("MOIDEAS_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing file is fine
	_ = godotenv.Load(envFile)
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("MOIDEAS_RUNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Batch.Runs = n
		}
	}

	if v := os.Getenv("MOIDEAS_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Batch.Seed = n
		}
	}

	if v := os.Getenv("MOIDEAS_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Batch.Workers = n
		}
	}

	if v, ok := os.LookupEnv("MOIDEAS_OUTPUT"); ok {
		config.Batch.Output = v
	}

	if v := os.Getenv("MOIDEAS_STORE_ENABLED"); v != "" {
		config.Store.Enabled = v == "true" || v == "1"
	}

	if v := os.Getenv("MOIDEAS_STORE_PATH"); v != "" {
		config.Store.Path = v
	}

	if v := os.Getenv("MOIDEAS_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
