package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	t.Setenv("SUBGUARD_MODE", "evm")
	t.Setenv("SUBGUARD_CHAIN_ID", "31337")
	t.Setenv("SUBGUARD_PAGE_SIZE", "10")
	t.Setenv("SUBGUARD_GATEWAY_TIMEOUT", "5s")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ModeEVM, cfg.Mode)
	assert.Equal(t, int64(31337), cfg.ChainID)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 5*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, "127.0.0.1:50051", cfg.GatewayEndpoint)
}

func TestParseEnv_BadValuePanics(t *testing.T) {
	t.Setenv("SUBGUARD_PAGE_SIZE", "many")

	cfg := &Config{}
	require.Panics(t, func() { parseEnv(cfg) })
}

func TestParseEnv_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("SUBGUARD_REDIS_ADDR=cache:6379\nSUBGUARD_LOG_LEVEL=debug\n"), 0o600))

	orig := envFile
	envFile = file
	t.Cleanup(func() {
		envFile = orig
		os.Unsetenv("SUBGUARD_REDIS_ADDR")
	})
	// the process environment wins over the file
	t.Setenv("SUBGUARD_LOG_LEVEL", "warn")

	cfg := &Config{}
	parseEnv(cfg)

	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, "warn", cfg.LogLevel)
}
