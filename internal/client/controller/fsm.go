package controller

import (
	"fmt"
	"slices"
)

// CreateState is a step of the create state machine.
type CreateState int

const (
	CreateValidating CreateState = iota
	CreateEncrypting
	CreateSubmitting
	CreateAwaitingConfirmation
	CreateRefreshing
	CreateDone
	CreateErrored
)

var createStateNames = [...]string{"validating", "encrypting", "submitting", "awaiting-confirmation", "refreshing", "done", "errored"}

func (s CreateState) String() string {
	if int(s) < len(createStateNames) {
		return createStateNames[s]
	}
	return fmt.Sprintf("create-state(%d)", int(s))
}

// A failed refresh does not fail the creation: the record is already on
// the ledger, so Refreshing only leads to Done.
var createTransitions = map[CreateState][]CreateState{
	CreateValidating:           {CreateEncrypting, CreateErrored},
	CreateEncrypting:           {CreateSubmitting, CreateErrored},
	CreateSubmitting:           {CreateAwaitingConfirmation, CreateErrored},
	CreateAwaitingConfirmation: {CreateRefreshing, CreateErrored},
	CreateRefreshing:           {CreateDone},
}

// RevealState is a step of the reveal state machine.
type RevealState int

const (
	RevealIdle RevealState = iota
	RevealCheckingVerified
	RevealAlreadyVerified
	RevealRequestingDecryption
	RevealSubmittingProof
	RevealConfirmed
	RevealErrored
)

var revealStateNames = [...]string{"idle", "checking-verified", "already-verified", "requesting-decryption", "submitting-proof", "confirmed", "errored"}

func (s RevealState) String() string {
	if int(s) < len(revealStateNames) {
		return revealStateNames[s]
	}
	return fmt.Sprintf("reveal-state(%d)", int(s))
}

var revealTransitions = map[RevealState][]RevealState{
	RevealIdle:                 {RevealCheckingVerified, RevealErrored},
	RevealCheckingVerified:     {RevealAlreadyVerified, RevealRequestingDecryption, RevealErrored},
	// Confirmed straight from RequestingDecryption: the relayer reported the
	// record as verified by someone else before a proof was ready.
	RevealRequestingDecryption: {RevealSubmittingProof, RevealConfirmed, RevealErrored},
	RevealSubmittingProof:      {RevealConfirmed, RevealErrored},
}

// CanTransition reports whether the create machine allows from -> to.
func (s CreateState) CanTransition(to CreateState) bool {
	return slices.Contains(createTransitions[s], to)
}

// Terminal reports whether no transition leaves s.
func (s CreateState) Terminal() bool { return len(createTransitions[s]) == 0 }

func (s RevealState) CanTransition(to RevealState) bool {
	return slices.Contains(revealTransitions[s], to)
}

func (s RevealState) Terminal() bool { return len(revealTransitions[s]) == 0 }

type stateName interface {
	comparable
	fmt.Stringer
}

// machine tracks one run of a state machine and publishes each transition.
type machine[S stateName] struct {
	op       string
	recordID string
	current  S
	allowed  func(from, to S) bool
	hub      *eventHub
}

func newMachine[S stateName](hub *eventHub, op string, initial S, allowed func(from, to S) bool) *machine[S] {
	return &machine[S]{op: op, current: initial, allowed: allowed, hub: hub}
}

func (m *machine[S]) to(next S) error {
	if !m.allowed(m.current, next) {
		return fmt.Errorf("%s: invalid transition %s -> %s", m.op, m.current, next)
	}
	m.current = next
	m.hub.publish(Event{Kind: StateChanged, Op: m.op, State: next.String(), RecordID: m.recordID})
	return nil
}

func (m *machine[S]) state() S { return m.current }
