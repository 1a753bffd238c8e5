// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import "github.com/ManuGH/factorysim/internal/domain/session/model"

// Decision is the outcome of consulting the decision table for one
// (state, event) pair.
type Decision struct {
	Allowed bool
	Reason  string // populated only when Allowed == false
}

func allowed() Decision { return Decision{Allowed: true} }

func forbid(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

const (
	ForbiddenAlreadyTerminal  = "state is terminal for this run"
	ForbiddenAlreadyInState   = "event has no effect in this state"
	ForbiddenWrongOrigin      = "event is not legal from this state"
	ForbiddenNotRecoverable   = "session is not interrupted"
)

// decisionTable is the exhaustive map[Status]map[EventKind]Decision. Every
// (state, event) pair MUST have an entry; TestTransitionTable_Coverage
// verifies this against transitionsTable.
var decisionTable = map[model.Status]map[EventKind]Decision{
	model.StatusIdle: {
		EvStart:            allowed(),
		EvPause:            forbid(ForbiddenWrongOrigin),
		EvResume:           forbid(ForbiddenWrongOrigin),
		EvStop:             forbid(ForbiddenWrongOrigin),
		EvExpire:           forbid(ForbiddenWrongOrigin),
		EvCrash:            forbid(ForbiddenWrongOrigin),
		EvOrchestratorDown: forbid(ForbiddenWrongOrigin),
		EvRecover:          forbid(ForbiddenWrongOrigin),
		EvDiscard:          forbid(ForbiddenWrongOrigin),
		EvDelete:           allowed(),
	},
	model.StatusRunning: {
		EvStart:            forbid(ForbiddenAlreadyInState),
		EvPause:            allowed(),
		EvResume:           forbid(ForbiddenAlreadyInState),
		EvStop:             allowed(),
		EvExpire:           allowed(),
		EvCrash:            allowed(),
		EvOrchestratorDown: allowed(),
		EvRecover:          forbid(ForbiddenWrongOrigin),
		EvDiscard:          forbid(ForbiddenWrongOrigin),
		EvDelete:           forbid("must be stopped before delete"),
	},
	model.StatusPaused: {
		EvStart:            forbid(ForbiddenWrongOrigin),
		EvPause:            forbid(ForbiddenAlreadyInState),
		EvResume:           allowed(),
		EvStop:             allowed(),
		EvExpire:           allowed(),
		EvCrash:            allowed(),
		EvOrchestratorDown: allowed(),
		EvRecover:          forbid(ForbiddenWrongOrigin),
		EvDiscard:          forbid(ForbiddenWrongOrigin),
		EvDelete:           forbid("must be stopped before delete"),
	},
	model.StatusStopped: {
		EvStart:            allowed(),
		EvPause:            forbid(ForbiddenAlreadyTerminal),
		EvResume:           forbid(ForbiddenAlreadyTerminal),
		EvStop:             forbid(ForbiddenAlreadyInState),
		EvExpire:           forbid(ForbiddenAlreadyTerminal),
		EvCrash:            forbid(ForbiddenAlreadyTerminal),
		EvOrchestratorDown: forbid(ForbiddenAlreadyTerminal),
		EvRecover:          forbid(ForbiddenNotRecoverable),
		EvDiscard:          forbid(ForbiddenWrongOrigin),
		EvDelete:           allowed(),
	},
	model.StatusExpired: {
		EvStart:            forbid(ForbiddenAlreadyTerminal),
		EvPause:            forbid(ForbiddenAlreadyTerminal),
		EvResume:           forbid(ForbiddenAlreadyTerminal),
		EvStop:             forbid(ForbiddenAlreadyTerminal),
		EvExpire:           forbid(ForbiddenAlreadyInState),
		EvCrash:            forbid(ForbiddenAlreadyTerminal),
		EvOrchestratorDown: forbid(ForbiddenAlreadyTerminal),
		EvRecover:          forbid(ForbiddenNotRecoverable),
		EvDiscard:          forbid(ForbiddenWrongOrigin),
		EvDelete:           allowed(),
	},
	model.StatusInterrupted: {
		EvStart:            forbid(ForbiddenWrongOrigin),
		EvPause:            forbid(ForbiddenWrongOrigin),
		EvResume:           forbid(ForbiddenWrongOrigin),
		EvStop:             forbid(ForbiddenWrongOrigin),
		EvExpire:           forbid(ForbiddenWrongOrigin),
		EvCrash:            forbid(ForbiddenWrongOrigin),
		EvOrchestratorDown: forbid(ForbiddenAlreadyInState),
		EvRecover:          allowed(),
		EvDiscard:          allowed(),
		EvDelete:           forbid("must be stopped or discarded before delete"),
	},
}

// DecisionFor returns the decision for (from, ev), and false if the pair is
// absent from the table (a programming error, not a user-facing rejection).
func DecisionFor(from model.Status, ev EventKind) (Decision, bool) {
	row, ok := decisionTable[from]
	if !ok {
		return Decision{}, false
	}
	d, ok := row[ev]
	return d, ok
}
