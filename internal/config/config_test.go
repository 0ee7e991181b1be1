package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalConfig = `
exchange:
  api_key: k
  secret_key: s
  passphrase: p
ai:
  api_key: sk-test
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "BTC-USDT", cfg.Trading.InstID())
	assert.Equal(t, "15m", cfg.Schedule.Interval)
	assert.Equal(t, 30, cfg.Schedule.CandleLimit)
	assert.Equal(t, "1h", cfg.Schedule.SlowInterval)
	assert.Equal(t, 24, cfg.Schedule.SlowLimit)
	assert.Equal(t, 70, cfg.AI.MinConfidence)
	assert.Equal(t, 0.00001, cfg.Trading.MinTradeUnit)
	assert.Equal(t, 0.95, cfg.Trading.ReserveRatio)
	assert.Equal(t, "https://www.okx.com", cfg.Exchange.BaseURL)
	assert.Equal(t, "deepseek-reasoner", cfg.AI.Model)
	assert.Equal(t, "data/skiff.db", cfg.Store.Path)
}

func TestLoadSimulatedUsesSimDB(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
  timeout_seconds: 60
trading:
  symbol: ETH-USDT
`))
	require.NoError(t, err)
	assert.Equal(t, "ETH-USDT", cfg.Trading.InstID())

	cfg, err = Load(writeConfig(t, `
exchange:
  api_key: k
  secret_key: s
  passphrase: p
  simulated: true
ai:
  api_key: sk-test
`))
	require.NoError(t, err)
	assert.True(t, cfg.Exchange.Simulated)
	assert.Equal(t, "data/skiff_sim.db", cfg.Store.Path)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("OKX_API_KEY", "")
	t.Setenv("OKX_SECRET_KEY", "")
	t.Setenv("OKX_PASSPHRASE", "")
	_, err := Load(writeConfig(t, `
ai:
  api_key: sk-test
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange.api_key")
}

func TestLoadEnvFallback(t *testing.T) {
	t.Setenv("OKX_API_KEY", "env-key")
	t.Setenv("OKX_SECRET_KEY", "env-secret")
	t.Setenv("OKX_PASSPHRASE", "env-pass")
	cfg, err := Load(writeConfig(t, `
ai:
  api_key: sk-test
`))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Exchange.APIKey)
}

func TestLoadRejectsBadInterval(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
schedule:
  interval: 7m
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interval")
}

func TestLoadWeakTyping(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
  min_confidence: "80"
`))
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.AI.MinConfidence)
}
