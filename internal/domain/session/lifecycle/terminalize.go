// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"context"
	"errors"

	"github.com/ManuGH/factorysim/internal/domain/session/model"
)

// WorkerOutcome is the single source of truth for mapping a worker's exit
// circumstances to a session outcome. graceful is true only when the
// Supervisor set the graceful flag and issued STOP before the worker exited
// (see §5 "race guard"); every other exit is a crash.
type WorkerOutcome struct {
	Event  EventKind
	Reason model.ReasonCode
}

// ClassifyWorkerExit decides whether a worker's termination should be
// reported as a clean stop (no WORKER_CRASHED event) or a crash.
func ClassifyWorkerExit(graceful bool, heartbeatTimedOut bool, err error) WorkerOutcome {
	if graceful {
		return WorkerOutcome{Event: EvStop, Reason: model.RUserStop}
	}
	if heartbeatTimedOut {
		return WorkerOutcome{Event: EvCrash, Reason: model.RHeartbeatTimeout}
	}
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return WorkerOutcome{Event: EvCrash, Reason: model.RWorkerCrashed}
	}
	return WorkerOutcome{Event: EvCrash, Reason: model.RWorkerCrashed}
}
