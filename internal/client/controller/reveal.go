package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/subguard/internal/client/ledger"
	"github.com/dmitrijs2005/subguard/internal/client/models"
	"github.com/dmitrijs2005/subguard/internal/common"
	"github.com/dmitrijs2005/subguard/internal/logging"
)

// RevealResult is the outcome of a successful RevealAmount.
type RevealResult struct {
	RecordID string
	// Amount is meaningful only when Known is true. It is unknown when a
	// concurrent disclosure won the race and the refreshed record could not
	// be read back.
	Amount uint64
	Known  bool
	// AlreadyVerified is set when no new decryption was performed.
	AlreadyVerified bool
	State           RevealState
}

// RevealAmount discloses a record's amount through proof-verified public
// decryption. Revealing a verified record returns the stored value without
// any cryptographic work; losing a race to another disclosure is not an
// error.
func (c *Controller) RevealAmount(ctx context.Context, id string) (res RevealResult, err error) {
	release, err := c.gate(&c.decrypting)
	if err != nil {
		return RevealResult{}, err
	}
	defer release()
	ctx = logging.ContextWith(ctx, "op", "reveal", "id", id)

	start := c.now()
	defer func() { c.observe("reveal", start, err) }()

	m := newMachine(&c.events, "reveal", RevealIdle, RevealState.CanTransition)
	m.recordID = id
	fail := func(err error) (RevealResult, error) {
		_ = m.to(RevealErrored)
		c.log.Error(ctx, "reveal failed", "error", err)
		c.appendAudit(ctx, models.CategoryDecrypt, "Failed to decrypt subscription amount: "+err.Error(), models.OutcomeError)
		c.notifier.Notify(models.OutcomeError, "Decryption failed")
		return RevealResult{RecordID: id, State: RevealErrored}, err
	}

	if err := m.to(RevealCheckingVerified); err != nil {
		return fail(err)
	}
	v, err := c.reader.GetRecord(ctx, id)
	if err != nil {
		return fail(fmt.Errorf("read record: %w", err))
	}

	if v.IsVerified {
		_ = m.to(RevealAlreadyVerified)
		c.refreshIfStale(ctx, id)
		c.appendAudit(ctx, models.CategoryDecrypt,
			fmt.Sprintf("Verified amount: %d for %s", v.DecryptedValue, v.Name), models.OutcomeSuccess)
		c.notifier.Notify(models.OutcomeSuccess, "Data already verified")
		return RevealResult{RecordID: id, Amount: v.DecryptedValue, Known: true, AlreadyVerified: true, State: m.state()}, nil
	}

	if err := m.to(RevealRequestingDecryption); err != nil {
		return fail(err)
	}
	w := c.currentWriter()
	if w == nil {
		return fail(common.ErrNotConnected)
	}
	if c.dec == nil {
		return fail(fmt.Errorf("%w: no decryptor configured", common.ErrGatewayUnavailable))
	}
	handle, err := c.reader.GetEncryptedHandle(ctx, id)
	if err != nil {
		return fail(fmt.Errorf("read handle: %w", err))
	}

	c.notifier.Notify(models.OutcomePending, "Verifying decryption...")
	values, err := c.dec.VerifyDecryption(ctx, []string{handle}, w.Address(),
		func(ctx context.Context, clear, proof []byte) (ledger.Tx, error) {
			if err := m.to(RevealSubmittingProof); err != nil {
				return nil, err
			}
			return w.SubmitVerification(ctx, id, clear, proof)
		})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyVerified) {
			return c.settleRace(ctx, m, id, v.Name)
		}
		return fail(fmt.Errorf("verify decryption: %w", err))
	}
	if m.state() != RevealSubmittingProof {
		return fail(fmt.Errorf("%w: decryption finished without a proof submission", common.ErrGatewayUnavailable))
	}
	value, ok := values[handle]
	if !ok {
		return fail(fmt.Errorf("%w: no clear value for %s", common.ErrGatewayUnavailable, handle))
	}

	if err := m.to(RevealConfirmed); err != nil {
		return fail(err)
	}
	if _, err := c.reload(ctx); err != nil {
		c.log.Warn(ctx, "refresh after reveal failed", "error", err)
	}
	c.appendAudit(ctx, models.CategoryDecrypt,
		fmt.Sprintf("Decrypted amount: %d for %s", value, v.Name), models.OutcomeSuccess)
	c.notifier.Notify(models.OutcomeSuccess, "Amount decrypted successfully!")
	return RevealResult{RecordID: id, Amount: value, Known: true, State: m.state()}, nil
}

// settleRace handles a proof submission rejected because the record was
// verified in the meantime: reload and report the stored value.
func (c *Controller) settleRace(ctx context.Context, m *machine[RevealState], id, name string) (RevealResult, error) {
	if err := m.to(RevealConfirmed); err != nil {
		// both states that can see the race allow Confirmed
		c.log.Error(ctx, "reveal state machine out of step", "error", err)
	}
	c.log.Info(ctx, "record verified concurrently")
	if _, err := c.reload(ctx); err != nil {
		c.log.Warn(ctx, "refresh after concurrent verification failed", "error", err)
	}

	res := RevealResult{RecordID: id, AlreadyVerified: true, State: m.state()}
	desc := "Data already verified for " + name
	if r, ok := c.record(id); ok && r.IsVerified && r.PlainAmount != nil {
		res.Amount, res.Known = *r.PlainAmount, true
		desc = fmt.Sprintf("Verified amount: %d for %s", res.Amount, name)
	}
	c.appendAudit(ctx, models.CategoryDecrypt, desc, models.OutcomeSuccess)
	c.notifier.Notify(models.OutcomeSuccess, "Data is already verified")
	return res, nil
}

// refreshIfStale reloads when the local copy of id lags behind the ledger.
func (c *Controller) refreshIfStale(ctx context.Context, id string) {
	if r, ok := c.record(id); ok && r.IsVerified {
		return
	}
	if _, err := c.reload(ctx); err != nil {
		c.log.Warn(ctx, "refresh of stale record failed", "error", err)
	}
}

func (c *Controller) record(id string) (models.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.records {
		if r.ID == id {
			return r, true
		}
	}
	return models.Record{}, false
}
