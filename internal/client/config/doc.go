// Package config loads runtime configuration for the SubGuard CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Environment variables prefixed SUBGUARD_, after loading a .env file
//     from the working directory if one exists.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-m string        mode: devnet or evm
//	-r string        ledger JSON-RPC URL
//	-chain int       chain id (0 asks the node)
//	-contract string record store contract address
//	-g string        relayer gRPC endpoint host:port
//	-d string        local database path
//	-j string        audit journal: none, sqlite or redis
//	-redis string    redis address for the redis journal
//	-i int           online status check interval (seconds)
//	-l string        log level
//	-metrics string  listen address for /metrics (empty disables)
//
// The signer key is never read from flags; use SUBGUARD_PRIVATE_KEY, the
// JSON file or the importkey command.
//
// # JSON schema
//
// Durations accept strings like "3s" or integer nanoseconds:
//
//	{
//	  "mode": "evm",
//	  "rpc_url": "http://127.0.0.1:8545",
//	  "contract_address": "0x5FbDB2315678afecb367f032d93F642f64180aa3",
//	  "gateway_endpoint": "127.0.0.1:50051",
//	  "gateway_timeout": "30s",
//	  "online_check_interval": "3s"
//	}
package config
