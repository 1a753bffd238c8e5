// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import "errors"

// Sentinel errors classified by the outer layers into stable response
// categories (see SPEC_FULL.md §10.2). Wrap with %w; never string-match.
var (
	ErrInvalidTransition   = errors.New("lifecycle: invalid state transition")
	ErrAdmissionRejected   = errors.New("lifecycle: admission rejected")
	ErrNotFoundOrDenied    = errors.New("lifecycle: session not found or access denied")
	ErrSessionNotRecoverable = errors.New("lifecycle: session is not recoverable")
	ErrWorkerInitFailed    = errors.New("lifecycle: worker initialization failed")
	ErrWorkerInitTimeout   = errors.New("lifecycle: worker initialization timed out")
	ErrWorkerCrashed       = errors.New("lifecycle: worker crashed")
	ErrInvariantViolation  = errors.New("lifecycle: internal invariant violation")
)
