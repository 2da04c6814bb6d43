package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/natefinch/atomic"
	"github.com/rodriguezmDNA/sonnetGenText/pkg/sonnet"
)

// Resource sources the tables can be loaded from.
const (
	SourceFiles    = "files"
	SourceSnapshot = "snapshot"
	SourceDatabase = "database"
)

const (
	envConfigPath     = "SONNET_CONFIG"
	envSeed           = "SONNET_SEED"
	defaultConfigPath = "./sonnet.json"
)

// GenerationConfig holds the bounds of the generation loops.
type GenerationConfig struct {
	MinLength   int `json:"min_length"`
	MaxLength   int `json:"max_length"`
	MaxAttempts int `json:"max_attempts"`
	// MaxSteps caps words per attempt; 0 leaves assembly unbounded.
	MaxSteps int `json:"max_steps"`
	// Seed fixes the random source; 0 seeds from the clock.
	Seed uint64 `json:"seed"`
}

// Config is the top-level configuration struct.
type Config struct {
	LogLevel string `json:"log_level"`
	// ServerAddr switches to serving texts over HTTP; empty prints one text.
	ServerAddr   string            `json:"server_addr"`
	Source       string            `json:"source"`
	Resources    sonnet.Resources  `json:"resources"`
	SnapshotPath string            `json:"snapshot_path"`
	DatabasePath string            `json:"database_path"`
	States       sonnet.StateNames `json:"states"`
	Generation   *GenerationConfig `json:"generation_config"`
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:   "warn",
		ServerAddr: "",
		Source:     SourceFiles,
		Resources: sonnet.Resources{
			EmissionPath:   "./data/EmissionMatrix.tsv",
			TransitionPath: "./data/TransitionMatrix.tsv",
			WordsPath:      "./data/ListOfWords.json",
		},
		SnapshotPath: "",
		DatabasePath: "./data/sonnet.db?_journal_mode=WAL&_busy_timeout=5000",
		States:       sonnet.DefaultStateNames(),
		Generation: &GenerationConfig{
			MinLength:   sonnet.DefaultMinLength,
			MaxLength:   sonnet.DefaultMaxLength,
			MaxAttempts: sonnet.DefaultMaxAttempts,
			MaxSteps:    0,
			Seed:        0,
		},
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Generation still works with defaults.
				fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if config.Generation == nil {
		config.Generation = DefaultConfig().Generation
	}
	return config, nil
}

// configPath returns the config file location, overridable from the environment.
func configPath() string {
	if p := os.Getenv(envConfigPath); p != "" {
		return p
	}
	return defaultConfigPath
}

// applyEnv overrides config values set in the environment.
func (c *Config) applyEnv() error {
	if s := os.Getenv(envSeed); s != "" {
		seed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", envSeed, s, err)
		}
		c.Generation.Seed = seed
	}
	return nil
}
