// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sessionapi

import (
	"errors"
	"net/http"

	"github.com/ManuGH/factorysim/internal/control/http/problem"
	"github.com/ManuGH/factorysim/internal/domain/session/lifecycle"
	"github.com/ManuGH/factorysim/internal/domain/session/manager"
	"github.com/ManuGH/factorysim/internal/domain/session/model"
)

// writeError classifies err against the lifecycle sentinel taxonomy and
// writes the matching RFC 7807 problem response (§10.2: classify, never
// string-match). errClass falls through to 500 for anything unrecognized.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, problemType, title := errClass(err)
	code := string(lifecycle.ReasonOf(err))
	if code == "" || code == string(model.RUnknown) {
		code = fallbackCode(err)
	}
	problem.Write(w, r, status, problemType, title, code, err.Error(), nil)
}

func errClass(err error) (status int, problemType, title string) {
	switch {
	case errors.Is(err, manager.ErrUnknownSession):
		return http.StatusNotFound, "urn:factorysim:error:session:not_found_or_denied", "Not Found"
	case errors.Is(err, manager.ErrAlreadyRunning):
		return http.StatusConflict, "urn:factorysim:error:session:already_running", "Conflict"
	case errors.Is(err, lifecycle.ErrAdmissionRejected):
		return http.StatusTooManyRequests, "urn:factorysim:error:session:capacity_exceeded", "Capacity Exceeded"
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return http.StatusConflict, "urn:factorysim:error:session:invalid_transition", "Invalid Transition"
	case errors.Is(err, lifecycle.ErrSessionNotRecoverable):
		return http.StatusConflict, "urn:factorysim:error:session:not_recoverable", "Not Recoverable"
	case errors.Is(err, lifecycle.ErrNotFoundOrDenied):
		return http.StatusNotFound, "urn:factorysim:error:session:not_found_or_denied", "Not Found"
	case errors.Is(err, lifecycle.ErrWorkerInitFailed), errors.Is(err, lifecycle.ErrWorkerInitTimeout):
		return http.StatusServiceUnavailable, "urn:factorysim:error:session:worker_init_failed", "Worker Unavailable"
	default:
		return http.StatusInternalServerError, "urn:factorysim:error:internal", "Internal Server Error"
	}
}

func fallbackCode(err error) string {
	switch {
	case errors.Is(err, manager.ErrUnknownSession):
		return string(model.RNotFoundOrDenied)
	case errors.Is(err, manager.ErrAlreadyRunning):
		return string(model.RInvalidTransition)
	default:
		return "INTERNAL_ERROR"
	}
}
