package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/subguard/internal/common"
)

const (
	ModeDevnet = "devnet"
	ModeEVM    = "evm"

	JournalNone   = "none"
	JournalSQLite = "sqlite"
	JournalRedis  = "redis"
)

// Config holds runtime settings for the SubGuard CLI.
type Config struct {
	Mode string `validate:"oneof=devnet evm"`

	RPCURL       string `validate:"required_if=Mode evm"`
	ChainID      int64  `validate:"gte=0"`
	ContractAddr string `validate:"required_if=Mode evm"`
	PrivateKey   string

	GatewayEndpoint string        `validate:"required_if=Mode evm"`
	GatewayTimeout  time.Duration `validate:"gt=0"`

	DatabasePath string `validate:"required"`
	AuditJournal string `validate:"oneof=none sqlite redis"`
	RedisAddr    string `validate:"required_if=AuditJournal redis"`

	PageSize            int           `validate:"gt=0"`
	SuccessTTL          time.Duration `validate:"gt=0"`
	ErrorTTL            time.Duration `validate:"gt=0"`
	OnlineCheckInterval time.Duration `validate:"gt=0"`

	LogLevel    string `validate:"oneof=debug info warn error"`
	LogFormat   string `validate:"oneof=text json logrus"`
	MetricsAddr string
}

// LoadDefaults populates c with sensible defaults. The default mode runs
// against the in-process dev network and needs no external services.
func (c *Config) LoadDefaults() {
	c.Mode = ModeDevnet
	c.RPCURL = "http://127.0.0.1:8545"
	c.ChainID = 0
	c.GatewayEndpoint = "127.0.0.1:50051"
	c.GatewayTimeout = 30 * time.Second
	c.DatabasePath = "subguard.db"
	c.AuditJournal = JournalSQLite
	c.RedisAddr = "127.0.0.1:6379"
	c.PageSize = common.DefaultPageSize
	c.SuccessTTL = common.SuccessNotificationTTL
	c.ErrorTTL = common.ErrorNotificationTTL
	c.OnlineCheckInterval = 3 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
}

var validate = validator.New()

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
