// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sessionapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/factorysim/internal/control/http/problem"
)

type ctxKey struct{ name string }

var ctxKeyOwnerUserID = &ctxKey{"ownerUserID"}
var ctxKeySessionID = &ctxKey{"sessionID"}

// headerUserID is the identity header this surface trusts. Authentication
// itself is an external collaborator (§7 "Out of scope") — a front door
// (reverse proxy, auth gateway) is expected to populate it after verifying
// the caller, the same division of labor the teacher's proxy layer uses
// ahead of its own API.
const headerUserID = "X-User-ID"

// requireOwner extracts the caller's user id and rejects the request if it
// is absent. Every session-mutating route requires this.
func requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(headerUserID)
		if userID == "" {
			problem.Write(w, r, http.StatusUnauthorized,
				"urn:factorysim:error:auth:missing_identity", "Unauthorized",
				"MISSING_USER_ID", "X-User-ID header is required", nil)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyOwnerUserID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bindSessionID validates the sessionID path param is present and attaches
// it to the request context, mirroring the request-scope ownership binding
// described in §7 for session-scoped read APIs.
func bindSessionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		if id == "" {
			problem.Write(w, r, http.StatusBadRequest,
				"urn:factorysim:error:session:invalid_id", "Bad Request",
				"INVALID_SESSION_ID", "session id is required", nil)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeySessionID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ownerUserID(r *http.Request) string {
	v, _ := r.Context().Value(ctxKeyOwnerUserID).(string)
	return v
}

func sessionID(r *http.Request) string {
	v, _ := r.Context().Value(ctxKeySessionID).(string)
	if v != "" {
		return v
	}
	return chi.URLParam(r, "sessionID")
}
