// Package config provides configuration management for TonPocket.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the client configuration.
type Config struct {
	Version int           `yaml:"version"`
	Chain   ChainConfig   `yaml:"chain"`
	Custody CustodyConfig `yaml:"custody"`
	Engine  EngineConfig  `yaml:"engine"`
	Retry   RetryConfig   `yaml:"retry"`
	Logging LoggingConfig `yaml:"logging"`
}

// ChainConfig defines chain RPC gateway settings.
type ChainConfig struct {
	RPC           string  `yaml:"rpc"`
	APIKey        string  `yaml:"api_key"`
	TonAPI        string  `yaml:"tonapi"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst"`
}

// CustodyConfig defines key-custody provider settings.
type CustodyConfig struct {
	BaseURL string `yaml:"base_url"`
	AppID   string `yaml:"app_id"`
}

// EngineConfig defines matching-engine settings.
type EngineConfig struct {
	BaseURL     string `yaml:"base_url"`
	SlippageBps int    `yaml:"slippage_bps"`
}

// RetryConfig defines the bounded retry budgets. Every remote loop in the
// client is capped; none retries indefinitely.
type RetryConfig struct {
	SignerAttempts      int           `yaml:"signer_attempts"`
	SignerDelay         time.Duration `yaml:"signer_delay"`
	CorrelationAttempts int           `yaml:"correlation_attempts"`
	CorrelationDelay    time.Duration `yaml:"correlation_delay"`
	DeployAttempts      int           `yaml:"deploy_attempts"`
	DeployDelay         time.Duration `yaml:"deploy_delay"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from the specified file and applies
// environment overrides on top.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	ApplyEnvironment(cfg)
	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// GetChainRPC returns the chain RPC gateway URL.
func (c *Config) GetChainRPC() string {
	return c.Chain.RPC
}

// GetChainAPIKey returns the chain RPC API key.
func (c *Config) GetChainAPIKey() string {
	return c.Chain.APIKey
}

// GetTonAPI returns the TonAPI base URL.
func (c *Config) GetTonAPI() string {
	return c.Chain.TonAPI
}

// GetCustodyBaseURL returns the custody provider base URL.
func (c *Config) GetCustodyBaseURL() string {
	return c.Custody.BaseURL
}

// GetCustodyAppID returns the custody provider application id.
func (c *Config) GetCustodyAppID() string {
	return c.Custody.AppID
}

// GetEngineBaseURL returns the matching-engine base URL.
func (c *Config) GetEngineBaseURL() string {
	return c.Engine.BaseURL
}

// GetSlippageBps returns the maximum price slippage in basis points.
func (c *Config) GetSlippageBps() int {
	return c.Engine.SlippageBps
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}
