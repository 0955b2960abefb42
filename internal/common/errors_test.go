package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlreadyVerified_WrapsAsRevert(t *testing.T) {
	err := fmt.Errorf("verify sub-1: %w: %w", ErrTransactionReverted, ErrAlreadyVerified)

	assert.True(t, errors.Is(err, ErrTransactionReverted))
	assert.True(t, errors.Is(err, ErrAlreadyVerified))
	assert.False(t, errors.Is(err, ErrTransactionRejected))
}

func TestWipeByteArray(t *testing.T) {
	b := []byte("secret")
	WipeByteArray(b)
	assert.Equal(t, make([]byte, 6), b)
	WipeByteArray(nil)
}
