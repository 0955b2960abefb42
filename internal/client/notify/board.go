// Package notify holds the single transient status message shown to the user.
//
// The controller posts notifications with an expiry; the presentation layer
// asks for the current one and the board drops it once it has expired. The
// board never runs timers of its own.
package notify

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/subguard/internal/client/models"
)

type Board struct {
	mu      sync.Mutex
	current *models.Notification
	now     func() time.Time

	successTTL time.Duration
	errorTTL   time.Duration
}

// NewBoard creates a board that keeps success messages for successTTL and
// error messages for errorTTL. Pending messages never expire on their own.
func NewBoard(successTTL, errorTTL time.Duration) *Board {
	return &Board{now: time.Now, successTTL: successTTL, errorTTL: errorTTL}
}

// SetClock overrides time.Now; meant for tests.
func (b *Board) SetClock(now func() time.Time) {
	b.mu.Lock()
	b.now = now
	b.mu.Unlock()
}

// Notify replaces the current message.
func (b *Board) Notify(status models.Outcome, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := models.Notification{Status: status, Message: message}
	switch status {
	case models.OutcomeSuccess:
		n.ExpiresAt = b.now().Add(b.successTTL)
	case models.OutcomeError:
		n.ExpiresAt = b.now().Add(b.errorTTL)
	}
	b.current = &n
}

// Current returns the visible message, pruning it first if it has expired.
func (b *Board) Current() (models.Notification, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return models.Notification{}, false
	}
	if b.current.Expired(b.now()) {
		b.current = nil
		return models.Notification{}, false
	}
	return *b.current, true
}

// Clear removes the current message.
func (b *Board) Clear() {
	b.mu.Lock()
	b.current = nil
	b.mu.Unlock()
}
