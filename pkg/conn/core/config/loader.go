package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go.uber.org/fx"

	"github.com/tigerroll/mooring/pkg/support/util/exception"
	"github.com/tigerroll/mooring/pkg/support/util/logger"
)

// Package config provides utilities for loading the mooring configuration
// from YAML, .env files and environment variables.

const moduleName = "config"

// EmbeddedConfig holds the raw bytes of a configuration file, typically passed
// from main.go via go:embed or read from disk by the caller.
type EmbeddedConfig []byte

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig
	EnvFilePath    string `name:"envFilePath" optional:"true"` // Path to the .env file, if any.
}

// loadConfig loads configuration from the embedded YAML and environment variables.
// It is intended to be called only once during application startup.
func loadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	cfg := NewConfig()

	// Expand ${VAR} placeholders before parsing so secrets can live in the environment.
	expander := NewOsEnvironmentExpander()
	expanded, err := expander.Expand(embeddedConfig)
	if err != nil {
		return nil, exception.NewProviderError(moduleName, "failed to expand environment placeholders in config", exception.KindConfiguration, err)
	}

	if len(expanded) > 0 {
		if err := yaml.Unmarshal(expanded, cfg); err != nil {
			return nil, exception.NewProviderError(moduleName, "failed to unmarshal embedded config", exception.KindConfiguration, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides individual settings from MOORING_* environment
// variables, taking precedence over YAML values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MOORING_LOG_LEVEL"); v != "" {
		cfg.Mooring.System.Logging.Level = v
	}
	if v := os.Getenv("MOORING_PROVIDER_DATASOURCE"); v != "" {
		cfg.Mooring.Provider.Datasource = v
	}
	if v := os.Getenv("MOORING_PROVIDER_USER"); v != "" {
		cfg.Mooring.Provider.User = v
	}
	if v := os.Getenv("MOORING_PROVIDER_PASSWORD"); v != "" {
		cfg.Mooring.Provider.Password = v
	}
	if v := os.Getenv("MOORING_SNAPSHOT_STORE"); v != "" {
		cfg.Mooring.Snapshot.Store = v
	}
	if v := os.Getenv("MOORING_SNAPSHOT_BASE_DIR"); v != "" {
		cfg.Mooring.Snapshot.BaseDir = v
	}
	if v := os.Getenv("MOORING_SNAPSHOT_BUCKET"); v != "" {
		cfg.Mooring.Snapshot.Bucket = v
	}
}

// NewConfigProvider is an Fx provider that loads and provides *Config.
// It initializes configuration by loading defaults, merging the embedded YAML,
// and overriding with environment variables, then sets the global log level.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := loadConfig(params.EnvFilePath, params.EmbeddedConfig)
	if err != nil {
		return nil, err
	}

	logger.SetLogLevel(cfg.Mooring.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Mooring.System.Logging.Level)

	return cfg, nil
}

// Load parses the given YAML bytes into a Config without Fx involvement.
// It applies the same defaulting, expansion and environment override passes
// as NewConfigProvider.
func Load(raw []byte) (*Config, error) {
	return loadConfig("", raw)
}
