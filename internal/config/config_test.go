package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, DefaultChainRPC, cfg.GetChainRPC())
	assert.Equal(t, DefaultTonAPI, cfg.GetTonAPI())
	assert.Equal(t, DefaultCustodyURL, cfg.GetCustodyBaseURL())
	assert.Equal(t, DefaultEngineURL, cfg.GetEngineBaseURL())
	assert.Equal(t, DefaultSlippageBps, cfg.GetSlippageBps())

	// Retry budgets match the documented bounds
	assert.Equal(t, 3, cfg.Retry.SignerAttempts)
	assert.Equal(t, time.Second, cfg.Retry.SignerDelay)
	assert.Equal(t, 30, cfg.Retry.CorrelationAttempts)
	assert.Equal(t, time.Second, cfg.Retry.CorrelationDelay)
	assert.Equal(t, 10, cfg.Retry.DeployAttempts)
	assert.Equal(t, 2*time.Second, cfg.Retry.DeployDelay)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Defaults()
	cfg.Chain.APIKey = "test-key"
	cfg.Custody.AppID = "app-123"
	cfg.Logging.Level = "debug"

	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test-key", loaded.GetChainAPIKey())
	assert.Equal(t, "app-123", loaded.GetCustodyAppID())
	assert.Equal(t, "debug", loaded.GetLoggingLevel())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestApplyEnvironment(t *testing.T) {
	t.Setenv(EnvChainRPC, "https://testnet.toncenter.com/api/v2/jsonRPC ")
	t.Setenv(EnvCustodyAppID, "env-app")
	t.Setenv(EnvLogLevel, "DEBUG")

	cfg := Defaults()
	ApplyEnvironment(cfg)

	assert.Equal(t, "https://testnet.toncenter.com/api/v2/jsonRPC", cfg.GetChainRPC())
	assert.Equal(t, "env-app", cfg.GetCustodyAppID())
	assert.Equal(t, "debug", cfg.GetLoggingLevel())
}

func TestEnvironmentUnsetLeavesDefaults(t *testing.T) {
	require.NoError(t, os.Unsetenv(EnvChainRPC))

	cfg := Defaults()
	ApplyEnvironment(cfg)
	assert.Equal(t, DefaultChainRPC, cfg.GetChainRPC())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected log.Level
	}{
		{"debug", log.DebugLevel},
		{"info", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"off", log.PanicLevel},
		{"garbage", log.InfoLevel},
		{"", log.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseLevel(tt.in), "level %q", tt.in)
	}
}
