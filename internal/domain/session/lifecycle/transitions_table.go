// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import "github.com/ManuGH/factorysim/internal/domain/session/model"

// Transition describes one legal edge in the Session state machine.
type Transition struct {
	From   model.Status
	To     model.Status
	Event  EventKind
	Reason model.ReasonCode
}

// transitionsTable enumerates only the ALLOWED edges; TestTransitionTable_Coverage
// asserts this agrees with decisionTable for every (state, event) pair
// except EvDelete, which has no target state and so no edge here.
var transitionsTable = []Transition{
	{From: model.StatusIdle, To: model.StatusRunning, Event: EvStart, Reason: model.RNone},
	{From: model.StatusStopped, To: model.StatusRunning, Event: EvStart, Reason: model.RNone},

	{From: model.StatusRunning, To: model.StatusPaused, Event: EvPause, Reason: model.RNone},
	{From: model.StatusPaused, To: model.StatusRunning, Event: EvResume, Reason: model.RNone},

	{From: model.StatusRunning, To: model.StatusStopped, Event: EvStop, Reason: model.RUserStop},
	{From: model.StatusPaused, To: model.StatusStopped, Event: EvStop, Reason: model.RUserStop},

	{From: model.StatusRunning, To: model.StatusExpired, Event: EvExpire, Reason: model.RExpired},
	{From: model.StatusPaused, To: model.StatusExpired, Event: EvExpire, Reason: model.RExpired},

	{From: model.StatusRunning, To: model.StatusStopped, Event: EvCrash, Reason: model.RWorkerCrashed},
	{From: model.StatusPaused, To: model.StatusStopped, Event: EvCrash, Reason: model.RWorkerCrashed},

	{From: model.StatusRunning, To: model.StatusInterrupted, Event: EvOrchestratorDown, Reason: model.ROrchestratorShutdown},
	{From: model.StatusPaused, To: model.StatusInterrupted, Event: EvOrchestratorDown, Reason: model.ROrchestratorShutdown},

	{From: model.StatusInterrupted, To: model.StatusRunning, Event: EvRecover, Reason: model.RNone},
	{From: model.StatusInterrupted, To: model.StatusStopped, Event: EvDiscard, Reason: model.RUserStop},
}

// TransitionFor looks up the single allowed transition for (from, ev).
func TransitionFor(from model.Status, ev EventKind) (Transition, bool) {
	for _, t := range transitionsTable {
		if t.From == from && t.Event == ev {
			return t, true
		}
	}
	return Transition{}, false
}
