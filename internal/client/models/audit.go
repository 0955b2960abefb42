package models

import "time"

// Outcome is the result recorded for an operation.
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// Audit categories.
const (
	CategorySystem  = "System"
	CategoryLoad    = "Data Load"
	CategoryCreate  = "Create"
	CategoryDecrypt = "Decrypt"
	CategoryCheck   = "Check"
	CategoryCache   = "Cache"
)

// AuditEntry is one line of the operation history.
type AuditEntry struct {
	ID          uint64    `json:"id"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Outcome     Outcome   `json:"outcome"`
}
