package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable the loader reads.
const EnvPrefix = "SUBGUARD_"

// envFile is loaded, if present, before the environment is read. Variables
// already set in the process environment win over the file.
var envFile = ".env"

type envVar struct {
	name string
	set  func(string) error
}

func envVars(cfg *Config) []envVar {
	return []envVar{
		{"MODE", stringVar(&cfg.Mode)},
		{"RPC_URL", stringVar(&cfg.RPCURL)},
		{"CHAIN_ID", int64Var(&cfg.ChainID)},
		{"CONTRACT_ADDRESS", stringVar(&cfg.ContractAddr)},
		{"PRIVATE_KEY", stringVar(&cfg.PrivateKey)},
		{"GATEWAY_ENDPOINT", stringVar(&cfg.GatewayEndpoint)},
		{"GATEWAY_TIMEOUT", durationVar(&cfg.GatewayTimeout)},
		{"DATABASE_PATH", stringVar(&cfg.DatabasePath)},
		{"AUDIT_JOURNAL", stringVar(&cfg.AuditJournal)},
		{"REDIS_ADDR", stringVar(&cfg.RedisAddr)},
		{"PAGE_SIZE", intVar(&cfg.PageSize)},
		{"SUCCESS_TTL", durationVar(&cfg.SuccessTTL)},
		{"ERROR_TTL", durationVar(&cfg.ErrorTTL)},
		{"ONLINE_CHECK_INTERVAL", durationVar(&cfg.OnlineCheckInterval)},
		{"LOG_LEVEL", stringVar(&cfg.LogLevel)},
		{"LOG_FORMAT", stringVar(&cfg.LogFormat)},
		{"METRICS_ADDR", stringVar(&cfg.MetricsAddr)},
	}
}

// parseEnv overlays Config with SUBGUARD_* variables. It panics on values
// that do not parse.
func parseEnv(cfg *Config) {
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			panic(fmt.Errorf("load %s: %w", envFile, err))
		}
	}

	for _, v := range envVars(cfg) {
		raw, ok := os.LookupEnv(EnvPrefix + v.name)
		if !ok {
			continue
		}
		if err := v.set(raw); err != nil {
			panic(fmt.Errorf("%s%s: %w", EnvPrefix, v.name, err))
		}
	}
}

func stringVar(dst *string) func(string) error {
	return func(s string) error {
		*dst = s
		return nil
	}
}

func intVar(dst *int) func(string) error {
	return func(s string) (err error) {
		*dst, err = strconv.Atoi(s)
		return err
	}
}

func int64Var(dst *int64) func(string) error {
	return func(s string) (err error) {
		*dst, err = strconv.ParseInt(s, 10, 64)
		return err
	}
}

func durationVar(dst *time.Duration) func(string) error {
	return func(s string) (err error) {
		*dst, err = time.ParseDuration(s)
		return err
	}
}
