// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sessionapi

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/factorysim/internal/control/http/problem"
	"github.com/ManuGH/factorysim/internal/domain/session/manager"
	"github.com/ManuGH/factorysim/internal/domain/session/recovery"
	"github.com/ManuGH/factorysim/internal/log"
)

// Server wires the session control surface (§6's operation table) onto a
// Manager and a RecoveryService. It holds no state of its own beyond what
// each collaborator already tracks.
type Server struct {
	mgr      *manager.Manager
	recovery *recovery.Service
}

// NewServer builds a Server bound to mgr and recSvc.
func NewServer(mgr *manager.Manager, recSvc *recovery.Service) *Server {
	return &Server{mgr: mgr, recovery: recSvc}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.L().Error().Err(err).Msg("sessionapi: failed to encode response")
	}
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// handleCreate implements POST /sessions (§6 "create").
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest,
			"urn:factorysim:error:session:invalid_body", "Bad Request",
			"INVALID_BODY", err.Error(), nil)
		return
	}

	sess, err := s.mgr.Create(r.Context(), manager.CreateRequest{
		OwnerUserID:    ownerUserID(r),
		Name:           req.Name,
		ConfigSnapshot: req.ConfigSnapshot,
		DurationDays:   req.DurationDays,
		SpeedFactor:    req.SpeedFactor,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{sess})
}

// handleStart implements POST /sessions/{sessionID}/start.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sess, err := s.mgr.Start(r.Context(), sessionID(r), ownerUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{sess})
}

// handlePause implements POST /sessions/{sessionID}/pause.
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	sess, err := s.mgr.Pause(r.Context(), sessionID(r), ownerUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{sess})
}

// handleResume implements POST /sessions/{sessionID}/resume.
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	sess, err := s.mgr.Resume(r.Context(), sessionID(r), ownerUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{sess})
}

// handleStop implements POST /sessions/{sessionID}/stop.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	var req stopRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest,
			"urn:factorysim:error:session:invalid_body", "Bad Request",
			"INVALID_BODY", err.Error(), nil)
		return
	}
	if req.Reason == "" {
		req.Reason = "user_stop"
	}
	sess, err := s.mgr.Stop(r.Context(), sessionID(r), ownerUserID(r), req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{sess})
}

// handleDelete implements DELETE /sessions/{sessionID}.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.mgr.Delete(r.Context(), sessionID(r), ownerUserID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGet implements GET /sessions/{sessionID}.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.mgr.Get(r.Context(), sessionID(r), ownerUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{sess})
}

// handleList implements GET /sessions.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.mgr.List(r.Context(), ownerUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Sessions: sessions, Count: len(sessions)})
}

// handleRecover implements POST /sessions/{sessionID}/recover. The recovery
// payload is assembled server-side from the Store's checkpoint tables
// (§6 "recover", §4.4) — callers never supply world state themselves.
func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	payload, err := s.recovery.AssemblePayload(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := s.mgr.Recover(r.Context(), sessionID(r), ownerUserID(r), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{sess})
}

// handleDiscard implements POST /sessions/{sessionID}/discard.
func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	sess, err := s.mgr.Discard(r.Context(), sessionID(r), ownerUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{sess})
}

// handleRecoverySummary implements GET /recovery-summary (§6 "recovery
// summary"): the result of the most recent startup Reconcile pass.
func (s *Server) handleRecoverySummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, reconciliationResponse{s.recovery.LastSummary()})
}
