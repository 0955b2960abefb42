// Package records persists the last reconciled record set so the client can
// show something while the ledger is unreachable.
//
// The table is a cache, not a source of truth: it is rewritten wholesale
// after every successful reload and never merged.
package records

import (
	"context"

	"github.com/dmitrijs2005/subguard/internal/client/models"
)

type Repository interface {
	// ReplaceAll drops the stored set and inserts records in order.
	// Callers that need atomicity run it inside dbx.WithTx.
	ReplaceAll(ctx context.Context, records []models.Record) error
	// GetAll returns the stored set in insertion order.
	GetAll(ctx context.Context) ([]models.Record, error)
}
