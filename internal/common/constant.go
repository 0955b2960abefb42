// Package common contains shared constants and sentinel errors used across
// SubGuard client components.
package common

import "time"

const (
	// AuditCapacity is the number of operation history entries kept in memory.
	AuditCapacity = 50

	// DefaultPageSize is the number of records per page in the derived view.
	DefaultPageSize = 6

	// RecordIDPrefix prefixes every identifier generated by the client.
	RecordIDPrefix = "sub-"

	// FrequencyNotePrefix prefixes the on-chain note that carries the billing frequency.
	FrequencyNotePrefix = "Subscription: "

	// SuccessNotificationTTL and ErrorNotificationTTL control how long a
	// transient status message stays visible.
	SuccessNotificationTTL = 2 * time.Second
	ErrorNotificationTTL   = 3 * time.Second
)
