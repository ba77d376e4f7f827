// Package config handles configuration loading.
package config

import (
	"os"
	"time"

	"github.com/woozymasta/bimgeo/internal/georef"
	"github.com/woozymasta/bimgeo/internal/projection"

	"gopkg.in/yaml.v3"
)

// Config represents the root configuration file structure.
type Config struct {
	Document      string    `yaml:"document"`
	ContextFilter string    `yaml:"context_filter,omitempty"`
	Addr          string    `yaml:"listen,omitempty"`
	Projector     Projector `yaml:"projector"`
	Port          int       `yaml:"port,omitempty"`
	Autosave      bool      `yaml:"autosave,omitempty"`
}

// Projector configures the WGS84 to EPSG projector.
type Projector struct {
	Enabled *bool         `yaml:"enabled,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// IsEnabled reports whether the projector is on; it is unless disabled explicitly.
func (p Projector) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// Default returns the configuration used without a config file.
func Default() *Config {
	return &Config{
		ContextFilter: georef.DefaultContextFilter,
		Projector:     Projector{Timeout: projection.DefaultTimeout},
	}
}

// Load reads and parses the YAML configuration file from the specified path.
// Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if cfg.Projector.Timeout <= 0 {
		cfg.Projector.Timeout = projection.DefaultTimeout
	}

	return cfg, nil
}
