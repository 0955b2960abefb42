package records

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/subguard/internal/client/models"
	"github.com/dmitrijs2005/subguard/internal/dbx"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE records (
  id           TEXT PRIMARY KEY,
  position     INTEGER NOT NULL,
  name         TEXT NOT NULL,
  frequency    TEXT NOT NULL,
  status       TEXT NOT NULL,
  note         TEXT NOT NULL DEFAULT '',
  plain_amount INTEGER NULL,
  is_verified  INTEGER NOT NULL DEFAULT 0,
  next_billing INTEGER NOT NULL,
  created_at   INTEGER NOT NULL,
  creator      TEXT NOT NULL,
  public_aux1  INTEGER NOT NULL DEFAULT 0,
  public_aux2  INTEGER NOT NULL DEFAULT 0
);`)
	require.NoError(t, err)
	return db
}

func amount(v uint64) *uint64 { return &v }

func sample() []models.Record {
	return []models.Record{
		{ID: "sub-b", Name: "Spotify", Frequency: models.FrequencyMonthly, Status: models.StatusActive,
			Note: "Subscription: monthly", NextBillingEpoch: 200, CreatedEpoch: 100, Creator: "0x01"},
		{ID: "sub-a", Name: "Netflix", Frequency: models.FrequencyYearly, Status: models.StatusActive,
			Note: "Subscription: yearly", PlainAmount: amount(1599), IsVerified: true,
			NextBillingEpoch: 300, CreatedEpoch: 100, Creator: "0x02", PublicAux1: 1 << 63},
	}
}

func TestReplaceAll_RoundTripKeepsOrder(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.ReplaceAll(ctx, sample()))

	got, err := r.GetAll(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(sample(), got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceAll_DropsPreviousSet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.ReplaceAll(ctx, sample()))
	require.NoError(t, r.ReplaceAll(ctx, sample()[:1]))

	got, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "sub-b", got[0].ID)
}

func TestGetAll_IgnoresAmountOfUnverifiedRow(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO records (id, position, name, frequency, status, plain_amount, is_verified, next_billing, created_at, creator)
		VALUES ('sub-x', 0, 'Gym', 'weekly', 'active', 30, 0, 0, 0, '0x01')`)
	require.NoError(t, err)

	got, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Nil(t, got[0].PlainAmount)
}

func TestReplaceAll_RollsBackInsideTx(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	require.NoError(t, NewSQLiteRepository(db).ReplaceAll(ctx, sample()))

	dup := append(sample(), sample()[0])
	err := dbx.WithTx(ctx, db, func(ctx context.Context, tx dbx.DBTX) error {
		return NewSQLiteRepository(tx).ReplaceAll(ctx, dup)
	})
	require.Error(t, err)

	got, err := NewSQLiteRepository(db).GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestGetAll_Empty(t *testing.T) {
	got, err := NewSQLiteRepository(setupDB(t)).GetAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}
