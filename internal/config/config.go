// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for medvault. It supports a layered
// override chain: defaults -> config file -> environment -> CLI flags.
package config

import "time"

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
	Network NetworkConfig `toml:"network"`
}

// ServerConfig identifies the MedVault service endpoint.
type ServerConfig struct {
	URL string `toml:"url"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	LogLevel string `toml:"log_level"`
}

// NetworkConfig controls HTTP client behavior.
type NetworkConfig struct {
	Timeout   string `toml:"timeout"`
	UserAgent string `toml:"user_agent"`
}

// Default values applied before the config file is read.
const (
	DefaultServerURL = "http://localhost:8000"
	DefaultLogLevel  = "info"
	DefaultTimeout   = "30s"
	DefaultUserAgent = "medvault-go/" + "0.1"
)

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Server:  ServerConfig{URL: DefaultServerURL},
		Logging: LoggingConfig{LogLevel: DefaultLogLevel},
		Network: NetworkConfig{
			Timeout:   DefaultTimeout,
			UserAgent: DefaultUserAgent,
		},
	}
}

// Resolved is the effective configuration after the full override chain,
// with string fields parsed into their usable types.
type Resolved struct {
	ServerURL string
	LogLevel  string
	Timeout   time.Duration
	UserAgent string
	TokenPath string
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings. Empty means "not specified".
type CLIOverrides struct {
	ConfigPath string // --config flag
	ServerURL  string // --server flag
}
