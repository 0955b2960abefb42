package services

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/dmitrijs2005/subguard/internal/client/models"
	"github.com/dmitrijs2005/subguard/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/subguard/internal/client/repositories/records"
	"github.com/dmitrijs2005/subguard/internal/dbx"
)

// SnapshotService caches the last reconciled record set for one account.
type SnapshotService interface {
	Save(ctx context.Context, recs []models.Record, at time.Time) error
	// Load returns the cached set and its sync time. A missing snapshot, or
	// one taken for a different account, yields (nil, zero time, nil).
	Load(ctx context.Context) ([]models.Record, time.Time, error)
}

type snapshotService struct {
	db      *sql.DB
	account string
}

func NewSnapshotService(db *sql.DB, account string) SnapshotService {
	return &snapshotService{db: db, account: account}
}

func (s *snapshotService) Save(ctx context.Context, recs []models.Record, at time.Time) error {
	return dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		if err := records.NewSQLiteRepository(tx).ReplaceAll(ctx, recs); err != nil {
			return err
		}
		return metadata.NewSQLiteRepository(tx).SetMany(ctx, map[string][]byte{
			metadata.KeySnapshotAccount:  []byte(s.account),
			metadata.KeySnapshotSyncedAt: []byte(strconv.FormatInt(at.UnixNano(), 10)),
		})
	})
}

func (s *snapshotService) Load(ctx context.Context) ([]models.Record, time.Time, error) {
	type snapshot struct {
		recs []models.Record
		at   time.Time
	}

	snap, err := dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) (snapshot, error) {
		meta, err := metadata.NewSQLiteRepository(tx).GetMany(ctx,
			metadata.KeySnapshotAccount, metadata.KeySnapshotSyncedAt)
		if err != nil {
			return snapshot{}, err
		}
		account, ok := meta[metadata.KeySnapshotAccount]
		if !ok || string(account) != s.account {
			return snapshot{}, nil
		}

		var at time.Time
		if ns, err := strconv.ParseInt(string(meta[metadata.KeySnapshotSyncedAt]), 10, 64); err == nil {
			at = time.Unix(0, ns)
		}

		recs, err := records.NewSQLiteRepository(tx).GetAll(ctx)
		if err != nil {
			return snapshot{}, err
		}
		return snapshot{recs: recs, at: at}, nil
	})
	if err != nil {
		return nil, time.Time{}, err
	}
	return snap.recs, snap.at, nil
}
