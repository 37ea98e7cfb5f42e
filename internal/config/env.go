package config

import (
	"os"
	"strings"
)

// Environment variable names.
const (
	EnvChainRPC     = "TONPOCKET_CHAIN_RPC"
	EnvChainAPIKey  = "TONPOCKET_CHAIN_API_KEY" // #nosec G101 -- const name, not a credential
	EnvTonAPI       = "TONPOCKET_TONAPI"
	EnvCustodyURL   = "TONPOCKET_CUSTODY_URL"
	EnvCustodyAppID = "TONPOCKET_CUSTODY_APP_ID"
	EnvEngineURL    = "TONPOCKET_ENGINE_URL"
	EnvLogLevel     = "TONPOCKET_LOG_LEVEL"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvChainRPC); v != "" {
		cfg.Chain.RPC = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvChainAPIKey); v != "" {
		cfg.Chain.APIKey = v
	}

	if v := os.Getenv(EnvTonAPI); v != "" {
		cfg.Chain.TonAPI = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvCustodyURL); v != "" {
		cfg.Custody.BaseURL = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvCustodyAppID); v != "" {
		cfg.Custody.AppID = v
	}

	if v := os.Getenv(EnvEngineURL); v != "" {
		cfg.Engine.BaseURL = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}
