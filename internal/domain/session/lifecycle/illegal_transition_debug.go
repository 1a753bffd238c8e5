//go:build debug

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import "github.com/ManuGH/factorysim/internal/domain/session/model"

// onInvariantViolation panics in debug builds so a broken guard (a caller
// that dispatched an event the decision table never allowed) fails loudly
// in development and CI rather than silently degrading a session.
func onInvariantViolation(from model.Status, ev EventKind, detail string) {
	panic("lifecycle: invariant violation: state=" + string(from) + " event=" + ev.String() + ": " + detail)
}
