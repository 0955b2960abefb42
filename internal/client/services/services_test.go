package services

import (
	"context"
	"database/sql"
	"encoding/hex"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/subguard/internal/client/models"
	"github.com/dmitrijs2005/subguard/internal/client/storage"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	repos, err := storage.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return repos.DB
}

func TestKeyService_ImportUnlock(t *testing.T) {
	ctx := context.Background()
	s := NewKeyService(setupDB(t))

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	keyHex := "0x" + hex.EncodeToString(crypto.FromECDSA(key))
	want := crypto.PubkeyToAddress(key.PublicKey).Hex()

	addr, err := s.StoredAddress(ctx)
	require.NoError(t, err)
	assert.Empty(t, addr)

	addr, err = s.Import(ctx, keyHex, []byte("correct horse"))
	require.NoError(t, err)
	assert.Equal(t, want, addr)

	stored, err := s.StoredAddress(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, stored)

	gotHex, gotAddr, err := s.Unlock(ctx, []byte("correct horse"))
	require.NoError(t, err)
	assert.Equal(t, keyHex[2:], gotHex)
	assert.Equal(t, want, gotAddr)

	_, _, err = s.Unlock(ctx, []byte("battery staple"))
	assert.ErrorIs(t, err, ErrWrongPassphrase)

	require.NoError(t, s.Forget(ctx))
	_, _, err = s.Unlock(ctx, []byte("correct horse"))
	assert.ErrorIs(t, err, ErrNoStoredKey)
}

func TestKeyService_RejectsInvalidKey(t *testing.T) {
	_, err := NewKeyService(setupDB(t)).Import(context.Background(), "zz", []byte("p"))
	assert.Error(t, err)
}

func TestSnapshotService(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	at := time.Unix(1_700_000_000, 0)
	recs := []models.Record{{ID: "sub-1", Name: "Netflix", Frequency: models.FrequencyMonthly, Status: models.StatusActive, Creator: "0x01"}}

	s := NewSnapshotService(db, "0xaaa")
	got, gotAt, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.True(t, gotAt.IsZero())

	require.NoError(t, s.Save(ctx, recs, at))

	got, gotAt, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, recs, got)
	assert.True(t, at.Equal(gotAt))

	other, _, err := NewSnapshotService(db, "0xbbb").Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, other, "snapshot of another account must not be served")
}
