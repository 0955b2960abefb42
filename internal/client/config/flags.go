package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/subguard/internal/flagx"
)

var knownFlags = []string{
	"-m", "-r", "-chain", "-contract", "-g", "-d", "-j", "-redis", "-i", "-l", "-metrics",
}

// parseFlags populates Config fields from command-line flags. os.Args is
// filtered through flagx.FilterArgs first so other components' flags (such
// as -c) do not interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Mode, "m", cfg.Mode, "mode: devnet or evm")
	fs.StringVar(&cfg.RPCURL, "r", cfg.RPCURL, "ledger JSON-RPC URL")
	fs.Int64Var(&cfg.ChainID, "chain", cfg.ChainID, "chain id (0 asks the node)")
	fs.StringVar(&cfg.ContractAddr, "contract", cfg.ContractAddr, "record store contract address")
	fs.StringVar(&cfg.GatewayEndpoint, "g", cfg.GatewayEndpoint, "relayer gRPC endpoint")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database path")
	fs.StringVar(&cfg.AuditJournal, "j", cfg.AuditJournal, "audit journal: none, sqlite or redis")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "redis address")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "listen address for /metrics")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
		}
	})
}
