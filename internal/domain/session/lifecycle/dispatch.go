// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"fmt"

	"github.com/ManuGH/factorysim/internal/domain/session/model"
)

// Dispatch consults the decision table for (from, ev). On success it returns
// the single matching Transition. On rejection it returns ErrInvalidTransition
// wrapping the forbidden reason. Dispatch never mutates the session; callers
// apply the returned Transition's To/Reason themselves inside a Store update.
func Dispatch(from model.Status, ev EventKind) (Transition, error) {
	d, ok := DecisionFor(from, ev)
	if !ok {
		onInvariantViolation(from, ev, "no decision entry")
		return Transition{}, fmt.Errorf("%w: no decision entry for state=%s event=%s", ErrInvariantViolation, from, ev)
	}
	if !d.Allowed {
		return Transition{}, fmt.Errorf("%w: %s (state=%s event=%s)", ErrInvalidTransition, d.Reason, from, ev)
	}
	t, ok := TransitionFor(from, ev)
	if !ok {
		onInvariantViolation(from, ev, "decision allows but no transition defined")
		return Transition{}, fmt.Errorf("%w: decision table allows state=%s event=%s but no transition is defined", ErrInvariantViolation, from, ev)
	}
	return t, nil
}
