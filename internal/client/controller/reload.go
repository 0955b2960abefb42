package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/subguard/internal/client/models"
	"github.com/dmitrijs2005/subguard/internal/common"
	"github.com/dmitrijs2005/subguard/internal/logging"
)

// Reload replaces the canonical set with what the ledger holds now.
// Records that fail to load are skipped; only a failed enumeration fails
// the call.
func (c *Controller) Reload(ctx context.Context) (err error) {
	release, err := c.gate(&c.syncing)
	if err != nil {
		return err
	}
	defer release()
	ctx = logging.ContextWith(ctx, "op", "reload")

	start := c.now()
	defer func() { c.observe("reload", start, err) }()

	n, err := c.reload(ctx)
	if err != nil {
		c.log.Error(ctx, "reload failed", "error", err)
		c.appendAudit(ctx, models.CategoryLoad, "Failed to load subscription data", models.OutcomeError)
		c.notifier.Notify(models.OutcomeError, "Failed to load data")
		return err
	}
	c.appendAudit(ctx, models.CategoryLoad, fmt.Sprintf("Loaded %d subscriptions", n), models.OutcomeSuccess)
	return nil
}

// reload is the ungated body of Reload. Create and reveal call it directly
// after their transaction confirms; it writes no audit entry.
func (c *Controller) reload(ctx context.Context) (int, error) {
	ids, err := c.reader.ListIDs(ctx)
	if err != nil {
		if ctx.Err() == nil && !errors.Is(err, common.ErrLedgerUnavailable) {
			err = fmt.Errorf("%w: %w", common.ErrLedgerUnavailable, err)
		}
		return 0, fmt.Errorf("list records: %w", err)
	}

	recs := make([]models.Record, 0, len(ids))
	var failed []string
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		v, err := c.reader.GetRecord(ctx, id)
		if err != nil {
			c.log.Warn(ctx, "skipping record", "id", id, "error", err)
			failed = append(failed, id)
			continue
		}
		recs = append(recs, models.RecordFromView(id, v))
	}
	if len(failed) > 0 {
		c.log.Warn(ctx, common.ErrPartialFetch.Error(), "failed", len(failed), "total", len(ids))
	}

	at := c.now()
	c.replace(ctx, recs, at)
	c.persist(ctx, recs, at)
	return len(recs), nil
}

func (c *Controller) replace(ctx context.Context, recs []models.Record, at time.Time) {
	c.mu.Lock()
	prev := c.records
	c.records = recs
	c.syncedAt = at
	c.fromCache = false
	c.mu.Unlock()

	// The ledger never un-verifies a record; if it appears to, say so.
	verified := make(map[string]bool, len(prev))
	for _, r := range prev {
		if r.IsVerified {
			verified[r.ID] = true
		}
	}
	for _, r := range recs {
		if verified[r.ID] && !r.IsVerified {
			c.log.Warn(ctx, "ledger reports a verified record as unverified", "id", r.ID)
		}
	}

	c.metrics.SetRecords(len(recs), countVerified(recs))
	c.events.publish(Event{Kind: RecordsChanged})
}

func (c *Controller) persist(ctx context.Context, recs []models.Record, at time.Time) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Save(ctx, recs, at); err != nil {
		c.log.Warn(ctx, "snapshot not cached", "error", err)
	}
}
