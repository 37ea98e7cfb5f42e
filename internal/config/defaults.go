package config

import "time"

// DefaultChainRPC is the default TON JSON-RPC gateway endpoint.
const DefaultChainRPC = "https://toncenter.com/api/v2/jsonRPC"

// DefaultTonAPI is the default TonAPI REST endpoint used for jetton reads.
const DefaultTonAPI = "https://tonapi.io"

// DefaultCustodyURL is the default key-custody provider endpoint.
const DefaultCustodyURL = "https://auth.privy.io"

// DefaultEngineURL is the default matching-engine endpoint.
const DefaultEngineURL = "https://omni-ws.ston.fi"

// DefaultSlippageBps is the default maximum price slippage (5%).
const DefaultSlippageBps = 500

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Chain: ChainConfig{
			RPC:           DefaultChainRPC,
			TonAPI:        DefaultTonAPI,
			RatePerSecond: 5,
			RateBurst:     10,
		},
		Custody: CustodyConfig{
			BaseURL: DefaultCustodyURL,
		},
		Engine: EngineConfig{
			BaseURL:     DefaultEngineURL,
			SlippageBps: DefaultSlippageBps,
		},
		Retry: RetryConfig{
			SignerAttempts:      3,
			SignerDelay:         time.Second,
			CorrelationAttempts: 30,
			CorrelationDelay:    time.Second,
			DeployAttempts:      10,
			DeployDelay:         2 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
