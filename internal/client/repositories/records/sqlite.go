package records

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/subguard/internal/client/models"
	"github.com/dmitrijs2005/subguard/internal/dbx"
)

// SQLiteRepository implements Repository over a dbx.DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, records []models.Record) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}

	query := `INSERT INTO records (id, position, name, frequency, status, note, plain_amount,
			is_verified, next_billing, created_at, creator, public_aux1, public_aux2)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for i, rec := range records {
		var amount sql.NullInt64
		if rec.PlainAmount != nil {
			amount = sql.NullInt64{Int64: int64(*rec.PlainAmount), Valid: true}
		}
		_, err := r.db.ExecContext(ctx, query,
			rec.ID, i, rec.Name, string(rec.Frequency), string(rec.Status), rec.Note, amount,
			rec.IsVerified, rec.NextBillingEpoch, rec.CreatedEpoch, rec.Creator,
			int64(rec.PublicAux1), int64(rec.PublicAux2))
		if err != nil {
			return fmt.Errorf("failed to insert record %s: %w", rec.ID, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Record, error) {
	query := `SELECT id, name, frequency, status, note, plain_amount, is_verified,
			next_billing, created_at, creator, public_aux1, public_aux2
		FROM records ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	result := make([]models.Record, 0)
	for rows.Next() {
		var (
			rec        models.Record
			freq, st   string
			amount     sql.NullInt64
			aux1, aux2 int64
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &freq, &st, &rec.Note, &amount, &rec.IsVerified,
			&rec.NextBillingEpoch, &rec.CreatedEpoch, &rec.Creator, &aux1, &aux2); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Frequency = models.Frequency(freq)
		rec.Status = models.Status(st)
		rec.PublicAux1, rec.PublicAux2 = uint64(aux1), uint64(aux2)
		// a cached amount is only trusted together with the verified flag
		if amount.Valid && rec.IsVerified {
			v := uint64(amount.Int64)
			rec.PlainAmount = &v
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
