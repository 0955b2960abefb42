package cryptox

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	salt := []byte("fixed-salt-16byt")

	k1 := DeriveKey([]byte("passphrase"), salt)
	k2 := DeriveKey([]byte("passphrase"), salt)
	k3 := DeriveKey([]byte("passphrase"), []byte("other-salt-16byt"))

	assert.Len(t, k1, 32)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}

func TestSealOpen_RoundTrip(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)
	key := DeriveKey([]byte("pw"), salt)

	ct, nonce, err := Seal([]byte("0xdeadbeef"), key)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(ct, []byte("deadbeef")))

	pt, err := Open(ct, nonce, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("0xdeadbeef"), pt)
}

func TestOpen_WrongKey(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)

	ct, nonce, err := Seal([]byte("secret"), DeriveKey([]byte("right"), salt))
	require.NoError(t, err)

	_, err = Open(ct, nonce, DeriveKey([]byte("wrong"), salt))
	require.True(t, errors.Is(err, ErrDecrypt))
}

func TestOpen_BadNonce(t *testing.T) {
	key := DeriveKey([]byte("pw"), []byte("salt-salt-salt-1"))
	_, err := Open([]byte("x"), []byte{1, 2}, key)
	require.True(t, errors.Is(err, ErrDecrypt))
}
