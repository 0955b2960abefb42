package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/subguard/internal/client/audit"
	"github.com/dmitrijs2005/subguard/internal/client/config"
	"github.com/dmitrijs2005/subguard/internal/client/devnet"
	"github.com/dmitrijs2005/subguard/internal/client/gateway"
	"github.com/dmitrijs2005/subguard/internal/client/ledger"
	auditrepo "github.com/dmitrijs2005/subguard/internal/client/repositories/audit"
	"github.com/dmitrijs2005/subguard/internal/client/storage"
	"github.com/dmitrijs2005/subguard/internal/logging"
)

// journalCapacity bounds the durable history kept in redis.
const journalCapacity = 500

// devnetConfirmation imitates block time on the in-process network.
var devnetConfirmation = 500 * time.Millisecond

var errDevnetSigner = errors.New("devnet mode signs with its built-in account")

// backend bundles the collaborators the controller talks to.
type backend struct {
	reader ledger.Reader
	// writer is nil until a signer key is available.
	writer    ledger.Writer
	enc       gateway.Encryptor
	dec       gateway.Decryptor
	namespace string
	ping      func(ctx context.Context) error
	// signer builds a writer from a hex private key.
	signer  func(ctx context.Context, keyHex string) (ledger.Writer, error)
	closers []func() error
}

func newBackend(ctx context.Context, cfg *config.Config, log logging.Logger) (*backend, error) {
	switch cfg.Mode {
	case config.ModeDevnet:
		return devnetBackend(), nil
	case config.ModeEVM:
		return evmBackend(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}

func devnetBackend() *backend {
	net := devnet.New(devnet.WithConfirmationDelay(devnetConfirmation))
	gw := net.Gateway()
	l := net.Ledger()
	return &backend{
		reader:    l,
		writer:    l,
		enc:       gw,
		dec:       gw,
		namespace: l.ContractAddress(),
		signer: func(context.Context, string) (ledger.Writer, error) {
			return nil, errDevnetSigner
		},
	}
}

func evmBackend(ctx context.Context, cfg *config.Config, log logging.Logger) (*backend, error) {
	reader, err := ledger.DialEVM(ctx, cfg.RPCURL, cfg.ContractAddr, "", cfg.ChainID)
	if err != nil {
		return nil, err
	}

	gw, err := gateway.NewGRPCClient(cfg.GatewayEndpoint,
		gateway.WithTimeout(cfg.GatewayTimeout),
		gateway.WithLogger(log.With("component", "gateway")),
	)
	if err != nil {
		_ = reader.Close()
		return nil, err
	}

	b := &backend{
		reader:    reader,
		enc:       gw,
		dec:       gw,
		namespace: reader.ContractAddress(),
		ping:      gw.Ping,
		// signers share the reader's node connection
		signer: func(ctx context.Context, keyHex string) (ledger.Writer, error) {
			return reader.Signing(ctx, keyHex, cfg.ChainID)
		},
		closers: []func() error{reader.Close, gw.Close},
	}

	if cfg.PrivateKey != "" {
		if b.writer, err = b.signer(ctx, cfg.PrivateKey); err != nil {
			_ = gw.Close()
			_ = reader.Close()
			return nil, fmt.Errorf("signer from config: %w", err)
		}
	}
	return b, nil
}

// newJournal returns the durable audit sink selected by cfg, or nil.
func newJournal(cfg *config.Config, repos *storage.Repositories, namespace string) (audit.Journal, func() error) {
	switch cfg.AuditJournal {
	case config.JournalSQLite:
		return repos.Audit, nil
	case config.JournalRedis:
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		return auditrepo.NewRedisJournal(client, namespace, journalCapacity), client.Close
	default:
		return nil, nil
	}
}
