// Package config loads pyscribe settings from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModel           = "gemini-2.5-flash"
	DefaultMaxPayloadBytes = 12000
	DefaultMaxBytes        = 2 * 1024 * 1024

	// placeholderKey is the value shipped in example config files.
	placeholderKey = "REPLACE_ME"
)

// Config is the pyscribe.yaml file after env overrides.
type Config struct {
	Gemini Gemini `yaml:"gemini"`
	Scan   Scan   `yaml:"scan"`
}

// Gemini configures the remote summary.
type Gemini struct {
	Key             string `yaml:"key"`
	Model           string `yaml:"model"`
	Endpoint        string `yaml:"endpoint"`
	MaxPayloadBytes int    `yaml:"max_payload_bytes"`
}

// Scan holds the defaults for file discovery.
type Scan struct {
	Exclude  []string `yaml:"exclude"`
	MaxBytes int64    `yaml:"max_bytes"`
	Jobs     int      `yaml:"jobs"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Gemini: Gemini{
			Model:           DefaultModel,
			MaxPayloadBytes: DefaultMaxPayloadBytes,
		},
		Scan: Scan{
			MaxBytes: DefaultMaxBytes,
		},
	}
}

// Load reads path over the defaults. A missing file, or an empty path,
// yields the defaults; a malformed file is an error. Environment variables
// (including those from a .env file in the working directory) override the
// file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)
	cfg.fillDefaults()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Gemini.Key = key
	}
	if endpoint := os.Getenv("GEMINI_API_ENDPOINT"); endpoint != "" {
		cfg.Gemini.Endpoint = endpoint
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		cfg.Gemini.Model = model
	}
	if exclude := os.Getenv("PYSCRIBE_EXCLUDE"); exclude != "" {
		for _, p := range strings.Split(exclude, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Scan.Exclude = append(cfg.Scan.Exclude, p)
			}
		}
	}
}

// fillDefaults restores defaults for zero values left by a partial file.
func (c *Config) fillDefaults() {
	if c.Gemini.Model == "" {
		c.Gemini.Model = DefaultModel
	}
	if c.Gemini.MaxPayloadBytes <= 0 {
		c.Gemini.MaxPayloadBytes = DefaultMaxPayloadBytes
	}
	if c.Scan.MaxBytes <= 0 {
		c.Scan.MaxBytes = DefaultMaxBytes
	}
}

// APIKey returns the configured key. The placeholder value counts as unset.
func (g Gemini) APIKey() (string, bool) {
	key := strings.TrimSpace(g.Key)
	if key == "" || key == placeholderKey {
		return "", false
	}
	return key, true
}
