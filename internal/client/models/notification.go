package models

import "time"

// Notification is a transient status message. A zero ExpiresAt means the
// message stays until replaced (used for pending operations).
type Notification struct {
	Status    Outcome
	Message   string
	ExpiresAt time.Time
}

// Expired reports whether n should no longer be shown at now.
func (n Notification) Expired(now time.Time) bool {
	return !n.ExpiresAt.IsZero() && !now.Before(n.ExpiresAt)
}
