package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names for overrides.
const (
	EnvConfig    = "MEDVAULT_CONFIG"
	EnvServerURL = "MEDVAULT_SERVER_URL"
	EnvLogLevel  = "MEDVAULT_LOG_LEVEL"
	EnvTokenPath = "MEDVAULT_TOKEN_PATH"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath string // MEDVAULT_CONFIG: override config file path
	ServerURL  string // MEDVAULT_SERVER_URL: service endpoint override
	LogLevel   string // MEDVAULT_LOG_LEVEL: log level override
	TokenPath  string // MEDVAULT_TOKEN_PATH: token file override
}

// ReadEnvOverrides reads environment variables and returns any overrides
// found. A .env file in the working directory is loaded first; variables
// already present in the environment win over .env values.
func ReadEnvOverrides() EnvOverrides {
	// Best-effort: a missing .env file is the normal case.
	_ = godotenv.Load()

	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		ServerURL:  os.Getenv(EnvServerURL),
		LogLevel:   os.Getenv(EnvLogLevel),
		TokenPath:  os.Getenv(EnvTokenPath),
	}
}
