//go:build !debug

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import "github.com/ManuGH/factorysim/internal/domain/session/model"

// onInvariantViolation does nothing in production builds: it does not panic,
// so one session's bad guard does not crash the orchestrator process.
// Dispatch still returns an error wrapping ErrInvariantViolation.
func onInvariantViolation(from model.Status, ev EventKind, detail string) {
	_ = from
	_ = ev
	_ = detail
}
