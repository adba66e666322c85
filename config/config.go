// Package config loads the ballot box daemon configuration from defaults, an
// optional YAML file and BLINDTEST_ prefixed environment variables, in that
// order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of the environment variables read by Load.
const EnvPrefix = "BLINDTEST"

// Supported database types.
const (
	DBTypePebble = "pebble"
	DBTypeMemory = "memory"
)

// Config holds the daemon settings.
type Config struct {
	DataDir         string `yaml:"dataDir"         split_words:"true"`
	DBType          string `yaml:"dbType"          envconfig:"DB_TYPE"`
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	LogLevel        string `yaml:"logLevel"        split_words:"true"`
	LogOutput       string `yaml:"logOutput"       split_words:"true"`
	MaxDecryptValue uint64 `yaml:"maxDecryptValue" split_words:"true"`
	MetricsEnabled  bool   `yaml:"metricsEnabled"  split_words:"true"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	dataDir := ".blindtest"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".blindtest")
	}
	return &Config{
		DataDir:         dataDir,
		DBType:          DBTypePebble,
		Host:            "0.0.0.0",
		Port:            9090,
		LogLevel:        "info",
		LogOutput:       "stdout",
		MaxDecryptValue: 1 << 20,
		MetricsEnabled:  true,
	}
}

// Load returns the defaults overlaid with the YAML file at path, if path is
// not empty, and then with the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be used as given.
func (c *Config) Validate() error {
	switch c.DBType {
	case DBTypePebble, DBTypeMemory:
	default:
		return fmt.Errorf("unsupported database type %q", c.DBType)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MaxDecryptValue == 0 {
		return fmt.Errorf("max decrypt value must be positive")
	}
	return nil
}
