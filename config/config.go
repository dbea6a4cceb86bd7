package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML configs can say "500ms" or "2m".
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// EngineConfig controls the conversion engine: pool sizing, retry policy and
// output placement. Zero values fall back to the engine defaults.
type EngineConfig struct {
	Concurrency       int      `yaml:"concurrency"`
	MaxAttempts       int      `yaml:"maxAttempts"`
	BaseDelay         Duration `yaml:"baseDelay"`
	MaxDelay          Duration `yaml:"maxDelay"`
	ItemTimeout       Duration `yaml:"itemTimeout"`
	HTTPTimeout       Duration `yaml:"httpTimeout"`
	OutputDir         string   `yaml:"outputDir"`
	Sink              string   `yaml:"sink"`
	CheckConnectivity bool     `yaml:"checkConnectivity"`
}

// DefaultEngineConfig returns the engine defaults used when no config file is
// given.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Concurrency: 5,
		MaxAttempts: 3,
		BaseDelay:   Duration(500 * time.Millisecond),
		MaxDelay:    Duration(30 * time.Second),
		ItemTimeout: Duration(2 * time.Minute),
		HTTPTimeout: Duration(30 * time.Second),
		OutputDir:   ".",
		Sink:        "fs",
	}
}

// LoadEngineConfig reads an EngineConfig from a YAML file, layering it over
// the defaults. Environment variables from .env are loaded first so the
// storage accessors below see them.
func LoadEngineConfig(path string) (EngineConfig, error) {
	// .env is optional, the process environment still applies without it
	_ = godotenv.Load()

	cfg := DefaultEngineConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
