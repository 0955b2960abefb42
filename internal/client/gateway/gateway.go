// Package gateway talks to the FHE relayer: it encrypts amounts bound to a
// (contract, user) pair and performs public decryption whose proof is then
// settled on the ledger.
package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/subguard/internal/client/ledger"
	"github.com/dmitrijs2005/subguard/internal/common"
)

// Ciphertext is an encrypted 32-bit value plus the proof the contract
// checks on import.
type Ciphertext struct {
	Handle []byte
	Proof  []byte
}

// ProofCallback submits ABI-encoded clear values and their decryption proof
// to the ledger.
type ProofCallback func(ctx context.Context, clearValues, proof []byte) (ledger.Tx, error)

type Encryptor interface {
	Encrypt(ctx context.Context, contract, user string, value uint64) (Ciphertext, error)
}

type Decryptor interface {
	// VerifyDecryption decrypts handles, hands the proof to onProofReady and
	// waits for the resulting transaction. The returned map is keyed by handle.
	VerifyDecryption(ctx context.Context, handles []string, requester string, onProofReady ProofCallback) (map[string]uint64, error)
}

// Relayer is the server-side contract of the gateway.
type Relayer interface {
	Encrypt(ctx context.Context, contract, user string, value uint64) (Ciphertext, error)
	PublicDecrypt(ctx context.Context, handles []string) (map[string]uint64, []byte, error)
}

// Loopback adapts an in-process Relayer to Encryptor and Decryptor.
type Loopback struct {
	Relayer Relayer
}

func (l Loopback) Encrypt(ctx context.Context, contract, user string, value uint64) (Ciphertext, error) {
	return l.Relayer.Encrypt(ctx, contract, user, value)
}

func (l Loopback) VerifyDecryption(ctx context.Context, handles []string, _ string, onProofReady ProofCallback) (map[string]uint64, error) {
	values, proof, err := l.Relayer.PublicDecrypt(ctx, handles)
	if err != nil {
		return nil, err
	}
	return settle(ctx, handles, values, proof, onProofReady)
}

func settle(ctx context.Context, handles []string, values map[string]uint64, proof []byte, onProofReady ProofCallback) (map[string]uint64, error) {
	normalized := make(map[string]uint64, len(values))
	for h, v := range values {
		normalized[strings.ToLower(h)] = v
	}

	ordered := make([]uint64, len(handles))
	result := make(map[string]uint64, len(handles))
	for i, h := range handles {
		v, ok := normalized[strings.ToLower(h)]
		if !ok {
			return nil, fmt.Errorf("%w: no clear value for handle %s", common.ErrGatewayUnavailable, h)
		}
		ordered[i] = v
		result[h] = v
	}

	clear, err := ledger.EncodeClearValues(ordered)
	if err != nil {
		return nil, err
	}

	tx, err := onProofReady(ctx, clear, proof)
	if err != nil {
		return nil, err
	}
	if err := tx.Wait(ctx); err != nil {
		return nil, err
	}
	return result, nil
}
