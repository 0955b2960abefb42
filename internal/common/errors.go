package common

import "errors"

// Callers should match these values with errors.Is. Boundaries (ledger,
// gateway) wrap transport errors into them.
var (
	// session errors
	ErrNotConnected = errors.New("wallet not connected")
	ErrBusy         = errors.New("operation already in progress")

	// input errors
	ErrValidation = errors.New("validation error")

	// collaborator errors
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	ErrLedgerUnavailable  = errors.New("ledger unavailable")
	ErrRecordNotFound     = errors.New("record not found")

	// transaction errors
	ErrTransactionRejected = errors.New("transaction rejected")
	ErrTransactionReverted = errors.New("transaction reverted")
	// ErrAlreadyVerified is always reported together with ErrTransactionReverted.
	ErrAlreadyVerified = errors.New("data already verified")

	// reload errors
	ErrPartialFetch = errors.New("some records failed to load")
)
