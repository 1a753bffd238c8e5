// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"testing"

	"github.com/ManuGH/factorysim/internal/domain/session/model"
)

var allStates = []model.Status{
	model.StatusIdle,
	model.StatusRunning,
	model.StatusPaused,
	model.StatusStopped,
	model.StatusExpired,
	model.StatusInterrupted,
}

var allEvents = []EventKind{
	EvStart, EvPause, EvResume, EvStop, EvExpire, EvCrash,
	EvOrchestratorDown, EvRecover, EvDiscard, EvDelete,
}

// TestTransitionTable_Coverage asserts decisionTable and transitionsTable
// never disagree: every (state, event) pair allowed by one has a matching
// entry in the other, and nothing else. EvDelete is the one exception to
// "allowed implies a transition": it removes the row, has no target state,
// and is checked through DecisionFor alone.
func TestTransitionTable_Coverage(t *testing.T) {
	for _, s := range allStates {
		for _, e := range allEvents {
			d, ok := DecisionFor(s, e)
			if !ok {
				t.Fatalf("missing decision entry for state=%s event=%s", s, e)
			}
			_, hasTransition := TransitionFor(s, e)
			if d.Allowed && !hasTransition && e != EvDelete {
				t.Errorf("state=%s event=%s allowed but no transition defined", s, e)
			}
			if !d.Allowed && hasTransition {
				t.Errorf("state=%s event=%s forbidden but a transition exists", s, e)
			}
		}
	}
}

func TestDispatch_HappyPath(t *testing.T) {
	tr, err := Dispatch(model.StatusIdle, EvStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.To != model.StatusRunning {
		t.Errorf("want running, got %s", tr.To)
	}
}

func TestDispatch_RejectsIllegal(t *testing.T) {
	_, err := Dispatch(model.StatusIdle, EvPause)
	if err == nil {
		t.Fatal("expected error for idle->pause")
	}
}

func TestDispatch_RecoveryPath(t *testing.T) {
	tr, err := Dispatch(model.StatusInterrupted, EvRecover)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.To != model.StatusRunning {
		t.Errorf("want running, got %s", tr.To)
	}

	tr2, err := Dispatch(model.StatusInterrupted, EvDiscard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr2.To != model.StatusStopped {
		t.Errorf("want stopped, got %s", tr2.To)
	}
}
