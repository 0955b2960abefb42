package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/subguard/internal/flagx"
	"github.com/dmitrijs2005/subguard/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Fields left
// out of the file keep the values already present in Config.
type JsonConfig struct {
	Mode                string         `json:"mode"`
	RPCURL              string         `json:"rpc_url"`
	ChainID             int64          `json:"chain_id"`
	ContractAddr        string         `json:"contract_address"`
	PrivateKey          string         `json:"private_key"`
	GatewayEndpoint     string         `json:"gateway_endpoint"`
	GatewayTimeout      timex.Duration `json:"gateway_timeout"`
	DatabasePath        string         `json:"database_path"`
	AuditJournal        string         `json:"audit_journal"`
	RedisAddr           string         `json:"redis_addr"`
	PageSize            int            `json:"page_size"`
	SuccessTTL          timex.Duration `json:"success_ttl"`
	ErrorTTL            timex.Duration `json:"error_ttl"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	LogLevel            string         `json:"log_level"`
	LogFormat           string         `json:"log_format"`
	MetricsAddr         string         `json:"metrics_addr"`
}

// parseJson overlays Config with values loaded from the file named by -c or
// -config. It panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.applyTo(cfg)
}

func (jc *JsonConfig) applyTo(cfg *Config) {
	setString(&cfg.Mode, jc.Mode)
	setString(&cfg.RPCURL, jc.RPCURL)
	if jc.ChainID != 0 {
		cfg.ChainID = jc.ChainID
	}
	setString(&cfg.ContractAddr, jc.ContractAddr)
	setString(&cfg.PrivateKey, jc.PrivateKey)
	setString(&cfg.GatewayEndpoint, jc.GatewayEndpoint)
	if jc.GatewayTimeout.Duration != 0 {
		cfg.GatewayTimeout = jc.GatewayTimeout.Duration
	}
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.AuditJournal, jc.AuditJournal)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	if jc.PageSize != 0 {
		cfg.PageSize = jc.PageSize
	}
	if jc.SuccessTTL.Duration != 0 {
		cfg.SuccessTTL = jc.SuccessTTL.Duration
	}
	if jc.ErrorTTL.Duration != 0 {
		cfg.ErrorTTL = jc.ErrorTTL.Duration
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
