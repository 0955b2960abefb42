package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/subguard/internal/client/ledger"
	"github.com/dmitrijs2005/subguard/internal/common"
)

// approvingWriter asks for confirmation before every transaction, the way a
// wallet would.
type approvingWriter struct {
	ledger.Writer
	approve func(ctx context.Context, method string) error
}

func (w approvingWriter) CreateRecord(ctx context.Context, p ledger.CreateParams) (ledger.Tx, error) {
	if err := w.approve(ctx, "createBusinessData"); err != nil {
		return nil, err
	}
	return w.Writer.CreateRecord(ctx, p)
}

func (w approvingWriter) SubmitVerification(ctx context.Context, id string, clearValues, proof []byte) (ledger.Tx, error) {
	if err := w.approve(ctx, "verifyDecryption"); err != nil {
		return nil, err
	}
	return w.Writer.SubmitVerification(ctx, id, clearValues, proof)
}

func (a *App) approving(w ledger.Writer) ledger.Writer {
	return approvingWriter{Writer: w, approve: a.approve}
}

func (a *App) approve(_ context.Context, method string) error {
	ok, err := a.ask.yesNo(fmt.Sprintf("Sign %s as %s?", method, shortAddress(a.currentAccount())))
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrTransactionRejected, err)
	}
	if !ok {
		return fmt.Errorf("%w: user rejected the request", common.ErrTransactionRejected)
	}
	return nil
}

func (a *App) currentAccount() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.account
}
