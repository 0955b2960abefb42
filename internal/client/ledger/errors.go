package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/dmitrijs2005/subguard/internal/common"
)

// revertReason extracts the Error(string) payload of a JSON-RPC revert.
func revertReason(err error) (string, bool) {
	var de rpc.DataError
	if errors.As(err, &de) {
		if s, ok := de.ErrorData().(string); ok {
			if data, decErr := hexutil.Decode(s); decErr == nil {
				if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
					return reason, true
				}
			}
		}
	}
	msg := err.Error()
	if i := strings.Index(msg, "execution reverted"); i >= 0 {
		reason := strings.TrimPrefix(msg[i+len("execution reverted"):], ":")
		return strings.TrimSpace(reason), true
	}
	return "", false
}

func revertError(reason string) error {
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "already verified"):
		return fmt.Errorf("%w: %w", common.ErrTransactionReverted, common.ErrAlreadyVerified)
	case reason == "":
		return common.ErrTransactionReverted
	default:
		return fmt.Errorf("%w: %s", common.ErrTransactionReverted, reason)
	}
}

func isRejection(err error) bool {
	if errors.Is(err, common.ErrTransactionRejected) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user rejected") || strings.Contains(msg, "user denied")
}

// classifyRead maps a failed eth_call onto the ledger sentinels.
func classifyRead(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if reason, ok := revertReason(err); ok {
		lower := strings.ToLower(reason)
		if strings.Contains(lower, "does not exist") || strings.Contains(lower, "not found") {
			return fmt.Errorf("%w: %s", common.ErrRecordNotFound, reason)
		}
		return revertError(reason)
	}
	if errors.Is(err, bind.ErrNoCode) {
		return fmt.Errorf("%w: no contract at address", common.ErrLedgerUnavailable)
	}
	return fmt.Errorf("%w: %w", common.ErrLedgerUnavailable, err)
}

// classifyWrite maps a failed signing/submission onto the ledger sentinels.
// Gas estimation surfaces contract reverts before anything is broadcast.
func classifyWrite(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if isRejection(err) {
		if errors.Is(err, common.ErrTransactionRejected) {
			return err
		}
		return fmt.Errorf("%w: %w", common.ErrTransactionRejected, err)
	}
	if reason, ok := revertReason(err); ok {
		return revertError(reason)
	}
	return fmt.Errorf("%w: %w", common.ErrLedgerUnavailable, err)
}
