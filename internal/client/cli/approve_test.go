package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/subguard/internal/client/ledger"
	"github.com/dmitrijs2005/subguard/internal/common"
)

type stubWriter struct {
	ledger.Writer
	creates, verifies int
}

func (w *stubWriter) CreateRecord(context.Context, ledger.CreateParams) (ledger.Tx, error) {
	w.creates++
	return nil, nil
}

func (w *stubWriter) SubmitVerification(context.Context, string, []byte, []byte) (ledger.Tx, error) {
	w.verifies++
	return nil, nil
}

func TestApprovingWriter(t *testing.T) {
	ctx := context.Background()
	inner := &stubWriter{}
	var asked []string
	decline := false
	w := approvingWriter{Writer: inner, approve: func(_ context.Context, method string) error {
		asked = append(asked, method)
		if decline {
			return errors.New("no")
		}
		return nil
	}}

	_, err := w.CreateRecord(ctx, ledger.CreateParams{})
	require.NoError(t, err)
	_, err = w.SubmitVerification(ctx, "sub-1", nil, nil)
	require.NoError(t, err)

	decline = true
	_, err = w.CreateRecord(ctx, ledger.CreateParams{})
	require.Error(t, err)

	assert.Equal(t, []string{"createBusinessData", "verifyDecryption", "createBusinessData"}, asked)
	assert.Equal(t, 1, inner.creates)
	assert.Equal(t, 1, inner.verifies)
}

func TestApp_ApproveEOFRejects(t *testing.T) {
	a, _ := newTestApp(t, "")
	err := a.approve(context.Background(), "createBusinessData")
	assert.ErrorIs(t, err, common.ErrTransactionRejected)
}
