package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "endpoint and interval", args: []string{"cmd", "-g", "127.0.0.1:9090", "-i", "10"},
			expected: &Config{GatewayEndpoint: "127.0.0.1:9090", OnlineCheckInterval: 10 * time.Second}},
		{name: "ledger settings", args: []string{"cmd", "-m", "evm", "-r", "http://node:8545", "-chain", "11155111", "-contract", "0xabc"},
			expected: &Config{Mode: "evm", RPCURL: "http://node:8545", ChainID: 11155111, ContractAddr: "0xabc"}},
		{name: "unknown flags are ignored", args: []string{"cmd", "-c", "cfg.json", "-x", "-j", "redis"},
			expected: &Config{AuditJournal: "redis"}},
		{name: "incorrect check interval", args: []string{"cmd", "-i", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(tt.expected, config))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
