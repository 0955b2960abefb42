package controller

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/subguard/internal/client/models"
	"github.com/dmitrijs2005/subguard/internal/common"
)

// CheckAvailability probes the ledger. It changes no state beyond the
// audit log and the notification.
func (c *Controller) CheckAvailability(ctx context.Context) (err error) {
	start := c.now()
	defer func() { c.observe("check", start, err) }()

	ok, err := c.reader.Probe(ctx)
	if err == nil && !ok {
		err = fmt.Errorf("%w: contract reported unavailable", common.ErrLedgerUnavailable)
	}
	if err != nil {
		c.log.Warn(ctx, "availability check failed", "error", err)
		c.appendAudit(ctx, models.CategoryCheck, "Failed to check contract availability", models.OutcomeError)
		c.notifier.Notify(models.OutcomeError, "Availability check failed")
		return err
	}
	c.appendAudit(ctx, models.CategoryCheck, "Checked contract availability", models.OutcomeSuccess)
	c.notifier.Notify(models.OutcomeSuccess, "Contract is available!")
	return nil
}
