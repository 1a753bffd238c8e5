// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sessionapi

import "github.com/ManuGH/factorysim/internal/domain/session/model"

// createRequest is the client-facing body for POST /sessions (§6 "create").
type createRequest struct {
	Name           string  `json:"name,omitempty"`
	ConfigID       string  `json:"configId,omitempty"`
	ConfigSnapshot string  `json:"configSnapshot,omitempty"`
	DurationDays   int     `json:"durationDays,omitempty"`
	SpeedFactor    float64 `json:"speedFactor,omitempty"`
}

// stopRequest is the optional body for POST /sessions/{id}/stop.
type stopRequest struct {
	Reason string `json:"reason,omitempty"`
}

// sessionResponse is the client-visible Session representation. It is a
// thin passthrough of model.Session — the internal checkpoint fields are
// already the ones a client needs to poll progress (§6, §7).
type sessionResponse struct {
	*model.Session
}

// listResponse wraps a session slice the same way the teacher wraps debug
// listings, so pagination metadata has a stable home if added later.
type listResponse struct {
	Sessions []*model.Session `json:"sessions"`
	Count    int              `json:"count"`
}

// reconciliationResponse is the client-visible recovery summary (§6
// "recovery summary"), refreshed every time RecoveryService.Reconcile runs.
type reconciliationResponse struct {
	model.ReconciliationSummary
}
