// internal/config/load.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvVersion = "VERSION"
	EnvToken   = "UPLOAD_TOKEN"
)

// Load reads a YAML config file. Missing keys keep their zero value;
// Normalize fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overlays the process environment.
// VERSION always wins when set; unset VERSION leaves the sentinel to Normalize.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvVersion); v != "" {
		cfg.Bridge.Diagnostics.Version = v
	}
	if v := getenv(EnvToken); v != "" {
		cfg.Bridge.Diagnostics.Token = v
	}
}
