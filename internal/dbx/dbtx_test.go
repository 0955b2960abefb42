package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// one connection, or every new one sees a fresh in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE records (id TEXT PRIMARY KEY, name TEXT NOT NULL)`)
	require.NoError(t, err)
	return db
}

func insert(ctx context.Context, tx DBTX, id, name string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO records(id, name) VALUES (?, ?)`, id, name)
	return err
}

func names(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM records ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		out = append(out, n)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestWithTx(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		fn      func(ctx context.Context, tx DBTX) error
		wantErr error
		want    []string
	}{
		{
			name: "commit",
			fn: func(ctx context.Context, tx DBTX) error {
				if err := insert(ctx, tx, "sub-1", "Netflix"); err != nil {
					return err
				}
				return insert(ctx, tx, "sub-2", "Spotify")
			},
			want: []string{"Netflix", "Spotify"},
		},
		{
			name: "callback error rolls back",
			fn: func(ctx context.Context, tx DBTX) error {
				if err := insert(ctx, tx, "sub-1", "Netflix"); err != nil {
					return err
				}
				return boom
			},
			wantErr: boom,
		},
		{
			name: "statement error rolls back earlier writes",
			fn: func(ctx context.Context, tx DBTX) error {
				if err := insert(ctx, tx, "sub-1", "Netflix"); err != nil {
					return err
				}
				return insert(ctx, tx, "sub-1", "duplicate")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openDB(t)
			err := WithTx(context.Background(), db, tt.fn)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.want == nil:
				require.Error(t, err)
			default:
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, names(t, db))
		})
	}
}

func TestInTx_ReturnsValue(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	require.NoError(t, WithTx(ctx, db, func(ctx context.Context, tx DBTX) error {
		return insert(ctx, tx, "sub-1", "Netflix")
	}))

	n, err := InTx(ctx, db, func(ctx context.Context, tx DBTX) (int, error) {
		var n int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n)
		return n, err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInTx_PanicRollsBackAndPropagates(t *testing.T) {
	db := openDB(t)

	assert.PanicsWithValue(t, "kaput", func() {
		_, _ = InTx(context.Background(), db, func(ctx context.Context, tx DBTX) (int, error) {
			require.NoError(t, insert(ctx, tx, "sub-1", "Netflix"))
			panic("kaput")
		})
	})
	assert.Empty(t, names(t, db))
}

func TestInTx_BeginError(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.Close())

	called := false
	_, err := InTx(context.Background(), db, func(ctx context.Context, tx DBTX) (int, error) {
		called = true
		return 0, nil
	})
	assert.ErrorContains(t, err, "begin transaction")
	assert.False(t, called)
}
