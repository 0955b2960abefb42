// Package models defines the client-side data model: subscription records,
// audit entries and transient notifications.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/subguard/internal/common"
)

// Frequency is the billing period of a subscription.
type Frequency string

const (
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Period returns the offset between two billing dates.
func (f Frequency) Period() time.Duration {
	switch f {
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	case FrequencyYearly:
		return 365 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// Note renders the on-chain description that carries the frequency.
func (f Frequency) Note() string {
	return common.FrequencyNotePrefix + string(f)
}

// FrequencyFromNote parses a note written by Frequency.Note. Anything
// unrecognised falls back to monthly.
func FrequencyFromNote(note string) Frequency {
	f := Frequency(strings.ToLower(strings.TrimSpace(strings.TrimPrefix(note, common.FrequencyNotePrefix))))
	if !f.Valid() {
		return FrequencyMonthly
	}
	return f
}

// Status is the lifecycle state of a subscription. Only active exists today;
// paused and cancelled are reserved.
type Status string

const StatusActive Status = "active"

// Record is the canonical client view of a subscription.
type Record struct {
	ID        string
	Name      string
	Frequency Frequency
	Status    Status
	Note      string

	// PlainAmount is set only for verified records.
	PlainAmount *uint64
	IsVerified  bool

	NextBillingEpoch int64
	CreatedEpoch     int64
	Creator          string

	PublicAux1 uint64
	PublicAux2 uint64
}

// RevealedAmount returns the amount a record contributes to revealed totals:
// the verified plaintext, or zero.
func (r Record) RevealedAmount() uint64 {
	if !r.IsVerified || r.PlainAmount == nil {
		return 0
	}
	return *r.PlainAmount
}

// PublicView is what the ledger returns for a record id.
type PublicView struct {
	Name           string
	Note           string
	Creator        string
	CreatedEpoch   int64
	IsVerified     bool
	DecryptedValue uint64
	PublicAux1     uint64
	PublicAux2     uint64
}

// RecordFromView builds a Record from the ledger projection. The decrypted
// value is trusted only when the ledger marks the record verified.
func RecordFromView(id string, v PublicView) Record {
	f := FrequencyFromNote(v.Note)
	r := Record{
		ID:               id,
		Name:             v.Name,
		Frequency:        f,
		Status:           StatusActive,
		Note:             v.Note,
		IsVerified:       v.IsVerified,
		CreatedEpoch:     v.CreatedEpoch,
		NextBillingEpoch: v.CreatedEpoch + int64(f.Period()/time.Second),
		Creator:          v.Creator,
		PublicAux1:       v.PublicAux1,
		PublicAux2:       v.PublicAux2,
	}
	if v.IsVerified {
		amount := v.DecryptedValue
		r.PlainAmount = &amount
	}
	return r
}

// ShortCreator abbreviates an address as 0x1234...abcd.
func (r Record) ShortCreator() string {
	if len(r.Creator) <= 10 {
		return r.Creator
	}
	return fmt.Sprintf("%s...%s", r.Creator[:6], r.Creator[len(r.Creator)-4:])
}
