package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1500.0, cfg.Pricing.ExchangeRate)
	assert.Equal(t, 0.10, cfg.Pricing.ProfitMargin)
	assert.Equal(t, 15*time.Second, cfg.Registrar.Timeout)
	assert.Equal(t, "com", cfg.Suggest.DefaultTLD)
	assert.Error(t, cfg.RequireCredentials())
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dothost.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
registrar:
  base_url: https://registrar.test/api/
  api_key: from-file
  timeout: 20s
pricing:
  exchange_rate: 1400
  profit_margin: 0.2
suggest:
  default_tld: .NG
  tld_priority: [".com", " .ng "]
`), 0o600))

	t.Setenv("DOTHOST_REGISTRAR_API_KEY", "from-env")
	t.Setenv("DOTHOST_PRICING_EXCHANGE_RATE", "1600")
	t.Setenv("DOTHOST_SUGGEST_PROBE_PREFIXES", "buy,try")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://registrar.test/api", cfg.Registrar.BaseURL)
	assert.Equal(t, "from-env", cfg.Registrar.APIKey)
	assert.Equal(t, 20*time.Second, cfg.Registrar.Timeout)
	assert.Equal(t, 1600.0, cfg.Pricing.ExchangeRate)
	assert.Equal(t, 0.2, cfg.Pricing.ProfitMargin)
	assert.Equal(t, "ng", cfg.Suggest.DefaultTLD)
	assert.Equal(t, []string{".com", ".ng"}, cfg.Suggest.TLDPriority)
	assert.Equal(t, []string{"buy", "try"}, cfg.Suggest.ProbePrefixes)
	assert.NoError(t, cfg.RequireCredentials())
}

func TestLoad_RejectsInvalidPricing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pricing:\n  exchange_rate: 0\n  profit_margin: -1\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange rate")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
