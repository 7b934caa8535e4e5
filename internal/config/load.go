package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Unknown keys are fatal — silently ignoring a typo in a
// config file leads to hard-to-debug behavior.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s: unknown key %q", path, undecoded[0].String())
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns
// a Config populated with all default values. This supports the zero-config
// first-run experience: users can start without creating a config file.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads configuration and applies the override chain:
// defaults -> config file -> environment variables -> CLI flags.
// The precedence order ensures CLI flags always win, matching user
// expectations for one-off overrides without editing the config file.
func Resolve(env EnvOverrides, cli CLIOverrides) (*Resolved, error) {
	// Resolve config path: CLI > env > default.
	cfgPath := DefaultConfigPath()
	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	cfg, err := LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	resolved := &Resolved{
		ServerURL: cfg.Server.URL,
		LogLevel:  cfg.Logging.LogLevel,
		UserAgent: cfg.Network.UserAgent,
		TokenPath: DefaultTokenPath(),
	}

	timeout, err := time.ParseDuration(cfg.Network.Timeout)
	if err != nil {
		return nil, fmt.Errorf("config: invalid network.timeout %q: %w", cfg.Network.Timeout, err)
	}

	resolved.Timeout = timeout

	// Env overrides.
	if env.ServerURL != "" {
		resolved.ServerURL = env.ServerURL
	}

	if env.LogLevel != "" {
		resolved.LogLevel = env.LogLevel
	}

	if env.TokenPath != "" {
		resolved.TokenPath = env.TokenPath
	}

	// CLI overrides (highest priority).
	if cli.ServerURL != "" {
		resolved.ServerURL = cli.ServerURL
	}

	if err := validate(resolved); err != nil {
		return nil, err
	}

	return resolved, nil
}

// validLogLevels are the accepted logging.log_level values.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validate checks the fully resolved configuration.
func validate(r *Resolved) error {
	u, err := url.Parse(r.ServerURL)
	if err != nil {
		return fmt.Errorf("config: invalid server.url %q: %w", r.ServerURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("config: server.url %q must use http or https", r.ServerURL)
	}

	if u.Host == "" {
		return fmt.Errorf("config: server.url %q has no host", r.ServerURL)
	}

	if !validLogLevels[r.LogLevel] {
		return fmt.Errorf("config: invalid logging.log_level %q (expected debug, info, warn, or error)", r.LogLevel)
	}

	if r.Timeout <= 0 {
		return fmt.Errorf("config: network.timeout must be positive, got %s", r.Timeout)
	}

	if r.TokenPath == "" {
		return fmt.Errorf("config: cannot determine token path (no home directory?)")
	}

	return nil
}
