// Package services contains application services that sit between the CLI
// and the local database: the passphrase-protected signer key and the
// last-known record snapshot.
package services

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/dmitrijs2005/subguard/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/subguard/internal/cryptox"
	"github.com/dmitrijs2005/subguard/internal/dbx"
)

var (
	ErrNoStoredKey     = errors.New("no signer key stored")
	ErrWrongPassphrase = errors.New("wrong passphrase")
)

// KeyService keeps the signer's private key encrypted under a passphrase.
//
// Contract:
//   - Import: validate a hex key, encrypt it and replace any stored key.
//   - Unlock: decrypt the stored key; ErrWrongPassphrase on mismatch.
//   - StoredAddress: the account of the stored key, "" if none.
//   - Forget: remove the stored key.
type KeyService interface {
	Import(ctx context.Context, keyHex string, passphrase []byte) (string, error)
	Unlock(ctx context.Context, passphrase []byte) (keyHex string, address string, err error)
	StoredAddress(ctx context.Context) (string, error)
	Forget(ctx context.Context) error
}

type keyService struct {
	db *sql.DB
}

func NewKeyService(db *sql.DB) KeyService {
	return &keyService{db: db}
}

func (s *keyService) Import(ctx context.Context, keyHex string, passphrase []byte) (string, error) {
	keyHex = strings.TrimPrefix(strings.TrimSpace(keyHex), "0x")
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	salt, err := cryptox.NewSalt()
	if err != nil {
		return "", err
	}
	ciphertext, nonce, err := cryptox.Seal(crypto.FromECDSA(key), cryptox.DeriveKey(passphrase, salt))
	if err != nil {
		return "", fmt.Errorf("encryption error: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteRepository(tx).SetMany(ctx, map[string][]byte{
			metadata.KeySignerSalt:       salt,
			metadata.KeySignerNonce:      nonce,
			metadata.KeySignerCiphertext: ciphertext,
			metadata.KeySignerAddress:    []byte(address),
		})
	})
	if err != nil {
		return "", fmt.Errorf("saving error: %w", err)
	}
	return address, nil
}

func (s *keyService) Unlock(ctx context.Context, passphrase []byte) (string, string, error) {
	stored, err := metadata.NewSQLiteRepository(s.db).GetMany(ctx,
		metadata.KeySignerSalt, metadata.KeySignerNonce, metadata.KeySignerCiphertext)
	if err != nil {
		return "", "", err
	}
	salt, nonce, ciphertext := stored[metadata.KeySignerSalt], stored[metadata.KeySignerNonce], stored[metadata.KeySignerCiphertext]
	if salt == nil || nonce == nil || ciphertext == nil {
		return "", "", ErrNoStoredKey
	}

	raw, err := cryptox.Open(ciphertext, nonce, cryptox.DeriveKey(passphrase, salt))
	if err != nil {
		if errors.Is(err, cryptox.ErrDecrypt) {
			return "", "", ErrWrongPassphrase
		}
		return "", "", err
	}

	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return "", "", fmt.Errorf("stored key is corrupt: %w", err)
	}
	return hex.EncodeToString(raw), crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}

func (s *keyService) StoredAddress(ctx context.Context) (string, error) {
	v, err := metadata.NewSQLiteRepository(s.db).Get(ctx, metadata.KeySignerAddress)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *keyService) Forget(ctx context.Context) error {
	return metadata.NewSQLiteRepository(s.db).Delete(ctx, metadata.SignerKeys...)
}
