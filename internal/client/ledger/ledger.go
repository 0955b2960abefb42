// Package ledger is the client's view of the on-chain record store.
//
// Reader covers the read-only surface (enumerate, fetch, probe); Writer is
// bound to a signer and submits transactions. Implementations map transport
// failures onto the sentinels in internal/common:
//
//   - ErrLedgerUnavailable     network or node failure on the read path
//   - ErrRecordNotFound        the record id does not exist
//   - ErrTransactionRejected   the signer declined to sign
//   - ErrTransactionReverted   the chain rejected the transaction
//   - ErrAlreadyVerified       revert reason "already verified" (wrapped with ErrTransactionReverted)
package ledger

import (
	"context"

	"github.com/dmitrijs2005/subguard/internal/client/models"
)

// Tx is a submitted transaction.
type Tx interface {
	Hash() string
	// Wait blocks until the transaction is included and reports its outcome.
	Wait(ctx context.Context) error
}

type Reader interface {
	ListIDs(ctx context.Context) ([]string, error)
	GetRecord(ctx context.Context, id string) (models.PublicView, error)
	// GetEncryptedHandle returns the 0x-prefixed hex handle of the encrypted amount.
	GetEncryptedHandle(ctx context.Context, id string) (string, error)
	Probe(ctx context.Context) (bool, error)
}

// CreateParams carries everything the creation transaction needs.
type CreateParams struct {
	ID         string
	Name       string
	Ciphertext []byte
	Proof      []byte
	Aux1       uint64
	Aux2       uint64
	Note       string
}

type Writer interface {
	// Address is the signer's account.
	Address() string
	ContractAddress() string
	CreateRecord(ctx context.Context, p CreateParams) (Tx, error)
	SubmitVerification(ctx context.Context, id string, clearValues, proof []byte) (Tx, error)
}
