package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/subguard/internal/client/models"
	"github.com/dmitrijs2005/subguard/internal/client/services"
	"github.com/dmitrijs2005/subguard/internal/client/view"
	"github.com/dmitrijs2005/subguard/internal/common"
)

// report prints a user-facing message for err and passes it through.
func (a *App) report(err error) error {
	switch {
	case err == nil:
	case errors.Is(err, common.ErrBusy):
		fmt.Fprintln(a.out, "Another operation of this kind is still running")
	case errors.Is(err, common.ErrNotConnected):
		fmt.Fprintln(a.out, "No signer connected: use importkey or unlock first")
	default:
		fmt.Fprintln(a.out, "Error:", err)
	}
	return err
}

// List prints the current page of the filtered record set.
func (a *App) List(ctx context.Context) error {
	a.mu.Lock()
	search, page := a.search, a.page
	a.mu.Unlock()

	p := a.ctrl.View(search, page, a.config.PageSize)
	if clamped := view.ClampPage(page, p.TotalPages); clamped != page {
		a.mu.Lock()
		a.page = clamped
		a.mu.Unlock()
		p = a.ctrl.View(search, clamped, a.config.PageSize)
	}

	renderPage(a.out, p, search)
	return nil
}

// Refresh reloads the canonical set from the ledger.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.ctrl.Reload(ctx); err != nil {
		return a.report(err)
	}
	return a.List(ctx)
}

// Add prompts for a new subscription and creates it on the ledger.
func (a *App) Add(ctx context.Context) error {
	name, err := a.ask.line("Service name")
	if err != nil {
		return err
	}
	amount, err := a.ask.line("Amount (whole units, encrypted before it leaves this machine)")
	if err != nil {
		return err
	}
	freq, err := a.ask.lineOr("Billing frequency: weekly, monthly or yearly", string(models.FrequencyMonthly))
	if err != nil {
		return err
	}

	id, err := a.ctrl.CreateRecord(ctx, models.CreateInput{
		Name:      name,
		Amount:    amount,
		Frequency: models.Frequency(freq),
	})
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Created", id)
	return a.List(ctx)
}

// Reveal discloses the amount of record id.
func (a *App) Reveal(ctx context.Context, id string) error {
	res, err := a.ctrl.RevealAmount(ctx, id)
	if err != nil {
		return a.report(err)
	}

	switch {
	case !res.Known:
		fmt.Fprintf(a.out, "%s was verified by someone else; refresh to see the amount\n", id)
	case res.AlreadyVerified:
		fmt.Fprintf(a.out, "%s: %d (already verified)\n", id, res.Amount)
	default:
		fmt.Fprintf(a.out, "%s: %d\n", id, res.Amount)
	}
	return nil
}

// Check probes the record store contract.
func (a *App) Check(ctx context.Context) error {
	return a.report(a.ctrl.CheckAvailability(ctx))
}

// History prints the operation audit log, most recent first.
func (a *App) History(ctx context.Context) error {
	renderHistory(a.out, a.ctrl.AuditLog())
	return nil
}

// Search filters the list by name or id; an empty term clears the filter.
func (a *App) Search(ctx context.Context, term string) error {
	a.mu.Lock()
	a.search = term
	a.page = 1
	a.mu.Unlock()
	return a.List(ctx)
}

// Page jumps to page n of the current list.
func (a *App) Page(ctx context.Context, n int) error {
	a.mu.Lock()
	a.page = n
	a.mu.Unlock()
	return a.List(ctx)
}

// Step moves delta pages forward or back.
func (a *App) Step(ctx context.Context, delta int) error {
	a.mu.Lock()
	a.page += delta
	if a.page < 1 {
		a.page = 1
	}
	a.mu.Unlock()
	return a.List(ctx)
}

// ImportKey stores a signer key under a passphrase and connects it.
func (a *App) ImportKey(ctx context.Context) error {
	key, err := a.ask.secret("Private key (hex)")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	pass, err := a.ask.newSecret("New passphrase")
	if errors.Is(err, errSecretMismatch) {
		fmt.Fprintln(a.out, "Passphrases do not match")
		return err
	}
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	addr, err := a.keys.Import(ctx, string(key), pass)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Stored key for", addr)
	return a.connect(ctx, string(key), addr)
}

// Unlock decrypts the stored signer key and connects it.
func (a *App) Unlock(ctx context.Context) error {
	pass, err := a.ask.secret("Passphrase")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	keyHex, addr, err := a.keys.Unlock(ctx, pass)
	if err != nil {
		return a.report(err)
	}
	return a.connect(ctx, keyHex, addr)
}

// ForgetKey removes the stored signer key. A connected signer stays
// connected until the session ends.
func (a *App) ForgetKey(ctx context.Context) error {
	if err := a.keys.Forget(ctx); err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Stored key removed")
	return nil
}

func (a *App) connect(ctx context.Context, keyHex, addr string) error {
	w, err := a.backend.signer(ctx, keyHex)
	if errors.Is(err, errDevnetSigner) {
		fmt.Fprintln(a.out, "Key kept; devnet mode keeps signing with", shortAddress(a.currentAccount()))
		return nil
	}
	if err != nil {
		return a.report(err)
	}

	a.ctrl.Connect(a.approving(w))
	a.mu.Lock()
	a.account = addr
	a.mu.Unlock()
	fmt.Fprintln(a.out, "Connected as", addr)
	return nil
}

// offerUnlock asks for the passphrase at startup when a stored key exists
// and no signer is connected yet.
func (a *App) offerUnlock(ctx context.Context) {
	if a.ctrl.Flags().Connected {
		return
	}
	addr, err := a.keys.StoredAddress(ctx)
	if err != nil || addr == "" {
		if err != nil && !errors.Is(err, services.ErrNoStoredKey) {
			a.log.Warn(ctx, "stored key lookup failed", "error", err)
		}
		fmt.Fprintln(a.out, "Read-only mode: use importkey to add a signer")
		return
	}

	fmt.Fprintln(a.out, "Unlock signer", addr)
	if err := a.Unlock(ctx); err != nil {
		fmt.Fprintln(a.out, "Continuing read-only; type unlock to retry")
	}
}
