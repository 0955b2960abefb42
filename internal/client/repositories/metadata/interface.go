// Package metadata is a small key/value store in the local database. It
// holds the snapshot bookkeeping and the passphrase-protected signer key.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeySnapshotSyncedAt = "snapshot.synced_at"
	KeySnapshotAccount  = "snapshot.account"

	KeySignerSalt       = "signer.salt"
	KeySignerNonce      = "signer.nonce"
	KeySignerCiphertext = "signer.ciphertext"
	KeySignerAddress    = "signer.address"
)

// SignerKeys are the keys that together make up a stored signer.
var SignerKeys = []string{KeySignerSalt, KeySignerNonce, KeySignerCiphertext, KeySignerAddress}

// Repository reads and writes raw values.
//
// Get returns (nil, nil) for an absent key; GetMany leaves absent keys out
// of the result. SetMany writes all values or none when run inside a
// transaction.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetMany(ctx context.Context, keys ...string) (map[string][]byte, error)
	SetMany(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, keys ...string) error
}
