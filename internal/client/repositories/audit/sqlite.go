// Package audit stores audit entries outside the process so the operation
// history survives restarts. SQLiteJournal keeps it in the local cache
// database; RedisJournal shares it between clients of the same account.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/subguard/internal/client/models"
	"github.com/dmitrijs2005/subguard/internal/dbx"
)

// SQLiteJournal keeps the most recent entries in the audit_log table.
type SQLiteJournal struct {
	db       dbx.DBTX
	capacity int
}

func NewSQLiteJournal(db dbx.DBTX) *SQLiteJournal {
	return &SQLiteJournal{db: db, capacity: 500}
}

// NextID draws from the AUTOINCREMENT audit_seq table, which never reissues
// a value even after rows are deleted. Only the newest row is kept.
func (j *SQLiteJournal) NextID(ctx context.Context) (uint64, error) {
	res, err := j.db.ExecContext(ctx, `INSERT INTO audit_seq DEFAULT VALUES`)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate audit id: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read audit id: %w", err)
	}
	if _, err := j.db.ExecContext(ctx, `DELETE FROM audit_seq WHERE id < ?`, id); err != nil {
		return 0, fmt.Errorf("failed to trim audit sequence: %w", err)
	}
	return uint64(id), nil
}

func (j *SQLiteJournal) Append(ctx context.Context, e models.AuditEntry) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, category, description, outcome, created_at) VALUES (?, ?, ?, ?, ?)`,
		int64(e.ID), e.Category, e.Description, string(e.Outcome), e.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to append audit entry %d: %w", e.ID, err)
	}

	// keep the table bounded
	_, err = j.db.ExecContext(ctx,
		`DELETE FROM audit_log WHERE seq <= (SELECT MAX(seq) FROM audit_log) - ?`, j.capacity)
	if err != nil {
		return fmt.Errorf("failed to trim audit log: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) Recent(ctx context.Context, n int) ([]models.AuditEntry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, category, description, outcome, created_at FROM audit_log ORDER BY seq DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to select audit entries: %w", err)
	}
	defer rows.Close()

	var result []models.AuditEntry
	for rows.Next() {
		var (
			e       models.AuditEntry
			id, ts  int64
			outcome string
		)
		if err := rows.Scan(&id, &e.Category, &e.Description, &outcome, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.ID = uint64(id)
		e.Outcome = models.Outcome(outcome)
		e.Timestamp = time.Unix(0, ts)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
