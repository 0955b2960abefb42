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

// CreateRecord encrypts the amount, submits the record and waits for the
// transaction to confirm, then reloads. It returns the new record id.
//
// Nothing is inserted locally before confirmation, and the amount leaves
// the client only as ciphertext: both public auxiliary fields are zero.
func (c *Controller) CreateRecord(ctx context.Context, in models.CreateInput) (id string, err error) {
	release, err := c.gate(&c.creating)
	if err != nil {
		return "", err
	}
	defer release()
	ctx = logging.ContextWith(ctx, "op", "create")

	start := c.now()
	defer func() { c.observe("create", start, err) }()

	m := newMachine(&c.events, "create", CreateValidating, CreateState.CanTransition)
	fail := func(err error) (string, error) {
		_ = m.to(CreateErrored)
		msg := createFailureMessage(err)
		c.log.Error(ctx, "create failed", "state", m.state().String(), "error", err)
		c.appendAudit(ctx, models.CategoryCreate, "Failed to create subscription: "+msg, models.OutcomeError)
		c.notifier.Notify(models.OutcomeError, msg)
		return "", err
	}

	amount, err := in.Validate()
	if err != nil {
		return fail(err)
	}
	w := c.currentWriter()
	if w == nil {
		return fail(common.ErrNotConnected)
	}
	if c.enc == nil {
		return fail(fmt.Errorf("%w: no encryptor configured", common.ErrGatewayUnavailable))
	}

	if err := m.to(CreateEncrypting); err != nil {
		return fail(err)
	}
	id = c.newID()
	ctx = logging.ContextWith(ctx, "id", id)
	m.recordID = id
	c.notifier.Notify(models.OutcomePending, "Creating encrypted subscription...")
	ct, err := c.enc.Encrypt(ctx, w.ContractAddress(), w.Address(), amount)
	if err != nil {
		return fail(fmt.Errorf("encrypt amount: %w", err))
	}

	if err := m.to(CreateSubmitting); err != nil {
		return fail(err)
	}
	tx, err := w.CreateRecord(ctx, ledger.CreateParams{
		ID:         id,
		Name:       in.Name,
		Ciphertext: ct.Handle,
		Proof:      ct.Proof,
		Note:       in.Frequency.Note(),
	})
	if err != nil {
		return fail(fmt.Errorf("submit record: %w", err))
	}

	if err := m.to(CreateAwaitingConfirmation); err != nil {
		return fail(err)
	}
	c.notifier.Notify(models.OutcomePending, "Waiting for confirmation...")
	c.log.Info(ctx, "create submitted", "tx", tx.Hash())
	if err := tx.Wait(ctx); err != nil {
		return fail(fmt.Errorf("confirm record: %w", err))
	}

	_ = m.to(CreateRefreshing)
	if _, err := c.reload(ctx); err != nil {
		c.log.Warn(ctx, "refresh after create failed", "error", err)
	}

	_ = m.to(CreateDone)
	c.appendAudit(ctx, models.CategoryCreate, "Created subscription: "+in.Name, models.OutcomeSuccess)
	c.notifier.Notify(models.OutcomeSuccess, "Subscription created successfully!")
	return id, nil
}

func createFailureMessage(err error) string {
	if errors.Is(err, common.ErrTransactionRejected) {
		return "Transaction rejected"
	}
	return "Creation failed: " + err.Error()
}
