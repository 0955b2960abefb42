package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/subguard/internal/client/models"
)

func TestBoard_ExpiryByStatus(t *testing.T) {
	now := time.Unix(1_000, 0)
	b := NewBoard(2*time.Second, 3*time.Second)
	b.SetClock(func() time.Time { return now })

	b.Notify(models.OutcomeSuccess, "Contract is available!")
	n, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, "Contract is available!", n.Message)
	assert.Equal(t, now.Add(2*time.Second), n.ExpiresAt)

	now = now.Add(2 * time.Second)
	_, ok = b.Current()
	assert.False(t, ok, "success message expires after its ttl")

	b.Notify(models.OutcomeError, "Decryption failed")
	now = now.Add(2999 * time.Millisecond)
	_, ok = b.Current()
	assert.True(t, ok)
	now = now.Add(time.Millisecond)
	_, ok = b.Current()
	assert.False(t, ok)
}

func TestBoard_PendingIsSticky(t *testing.T) {
	now := time.Unix(0, 0)
	b := NewBoard(time.Second, time.Second)
	b.SetClock(func() time.Time { return now })

	b.Notify(models.OutcomePending, "Waiting for confirmation...")
	now = now.Add(time.Hour)

	n, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, models.OutcomePending, n.Status)
	assert.True(t, n.ExpiresAt.IsZero())

	b.Clear()
	_, ok = b.Current()
	assert.False(t, ok)
}
