// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/databundle/lib/signature"
	"github.com/bureau-foundation/databundle/lib/source"
)

// EnvVar names the environment variable read by [Load].
const EnvVar = "BUREAU_BUNDLE_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local signing with throwaway keys.
	Development Environment = "development"
	// Staging is for pre-production pipelines.
	Staging Environment = "staging"
	// Production is for release signing.
	Production Environment = "production"
)

// Config is the bureau-bundle configuration.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Signing selects the key used by "item sign".
	Signing SigningConfig `yaml:"signing"`

	// Output configures files written by the tool.
	Output OutputConfig `yaml:"output"`

	// Log configures the command-line logger.
	Log LogConfig `yaml:"log"`

	// Per-environment overrides, applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Signing *SigningConfig `yaml:"signing,omitempty"`
	Output  *OutputConfig  `yaml:"output,omitempty"`
	Log     *LogConfig     `yaml:"log,omitempty"`
}

// SigningConfig configures the signing key.
type SigningConfig struct {
	// Type is a signature type name, alias, or number ("ed25519",
	// "ES256K", "1"). Empty accepts whatever the key file holds.
	Type string `yaml:"type"`

	// KeyFile is the path to a JWK, hex secp256k1, or age-sealed key.
	KeyFile string `yaml:"key_file"`

	// AgeIdentityFile opens sealed key files.
	AgeIdentityFile string `yaml:"age_identity_file"`
}

// OutputConfig configures written items and bundles.
type OutputConfig struct {
	// Compression applies when the output path has no recognized
	// suffix: none, zstd, or lz4.
	Compression string `yaml:"compression"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`
}

// Default returns a Config with development defaults.
func Default() *Config {
	return &Config{
		Environment: Development,
		Output: OutputConfig{
			Compression: "none",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the BUREAU_BUNDLE_CONFIG environment
// variable. There are no fallbacks: if the variable is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your bundle.yaml config file, or use --config flag", EnvVar)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// Environment variables never override config values. The only
// expansion is ${HOME} and ${VAR:-default} in path fields.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production never logs key material paths at debug level.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Log: &LogConfig{Level: "warn"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Signing != nil {
		if overrides.Signing.Type != "" {
			c.Signing.Type = overrides.Signing.Type
		}
		if overrides.Signing.KeyFile != "" {
			c.Signing.KeyFile = overrides.Signing.KeyFile
		}
		if overrides.Signing.AgeIdentityFile != "" {
			c.Signing.AgeIdentityFile = overrides.Signing.AgeIdentityFile
		}
	}

	if overrides.Output != nil && overrides.Output.Compression != "" {
		c.Output.Compression = overrides.Output.Compression
	}

	if overrides.Log != nil && overrides.Log.Level != "" {
		c.Log.Level = overrides.Log.Level
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Signing.KeyFile = expandVars(c.Signing.KeyFile, vars)
	c.Signing.AgeIdentityFile = expandVars(c.Signing.AgeIdentityFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns, preferring
// vars over the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Signing.Type != "" {
		if _, err := signature.ParseType(c.Signing.Type); err != nil {
			errs = append(errs, fmt.Errorf("signing.type: %w", err))
		}
	}

	if c.Signing.AgeIdentityFile != "" && c.Signing.KeyFile == "" {
		errs = append(errs, fmt.Errorf("signing.age_identity_file is set but signing.key_file is empty"))
	}

	if _, err := source.ParseCompression(c.Output.Compression); err != nil {
		errs = append(errs, fmt.Errorf("output.compression: %w", err))
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SignatureType returns the configured signature type, or zero when
// none is configured.
func (c *Config) SignatureType() (signature.Type, error) {
	if c.Signing.Type == "" {
		return 0, nil
	}
	return signature.ParseType(c.Signing.Type)
}

// OutputCompression returns the configured default compression.
func (c *Config) OutputCompression() (source.Compression, error) {
	return source.ParseCompression(c.Output.Compression)
}

// ParseLevel maps a level name to a slog level. Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown level %q", name)
	}
}
