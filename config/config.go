// Package config provides the garage configuration, read from an optional YAML
// file. Any setting left out of the file takes its default value.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v2"

	"github.com/rorycl/garage/garage"
)

// Defaults.
const (
	DefaultGarageFile   = "garage.csv"
	DefaultDatabasePath = "garage.db"
	DefaultLogLevel     = "warn"
)

// Config represents the entire application configuration.
type Config struct {
	GarageFile  string       `yaml:"garage_file"`
	IDPolicyStr string       `yaml:"id_policy"`
	LogLevelStr string       `yaml:"log_level"`
	Export      ExportConfig `yaml:"export"`

	IDPolicy garage.IDPolicy `yaml:"-"` // Parsed from IDPolicyStr
	LogLevel log.Level       `yaml:"-"` // Parsed from LogLevelStr
}

// ExportConfig holds settings for exporting the garage to SQLite.
type ExportConfig struct {
	DatabasePath string `yaml:"database_path"`
	// SQLDir, if set, is a directory of sql files used in place of the
	// embedded ones.
	SQLDir string `yaml:"sql_dir"`
}

// Default returns the configuration used when no configuration file is given.
func Default() *Config {
	var cfg Config
	// The zero Config always validates.
	_ = validateAndPrepare(&cfg)
	return &cfg
}

// Load loads and validates the configuration from the given file path.
func Load(filePath string) (*Config, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", filePath)
	}

	configFile, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	err = yaml.UnmarshalStrict(configFile, &cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to parse YAML config file: %w", err)
	}

	if err := validateAndPrepare(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validateAndPrepare fills in defaults and sets up derived values.
func validateAndPrepare(c *Config) error {
	if c.GarageFile == "" {
		c.GarageFile = DefaultGarageFile
	}

	policy, err := garage.ParseIDPolicy(c.IDPolicyStr)
	if err != nil {
		return fmt.Errorf("invalid id_policy: %w", err)
	}
	c.IDPolicy = policy

	if c.LogLevelStr == "" {
		c.LogLevelStr = DefaultLogLevel
	}
	c.LogLevel, err = log.ParseLevel(c.LogLevelStr)
	if err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}

	// Export
	if c.Export.DatabasePath == "" {
		c.Export.DatabasePath = DefaultDatabasePath
	}
	if c.Export.SQLDir != "" {
		s, err := os.Stat(c.Export.SQLDir)
		if err != nil {
			return fmt.Errorf("export.sql_dir %q not found: %w", c.Export.SQLDir, err)
		}
		if !s.IsDir() {
			return errors.New("export.sql_dir is not a directory")
		}
	}

	return nil
}
