// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"context"
	"fmt"

	"github.com/ManuGH/factorysim/internal/domain/session/lifecycle"
	"github.com/ManuGH/factorysim/internal/domain/session/model"
	"github.com/ManuGH/factorysim/internal/log"
)

// checkAdmission enforces the per-user and global active-session caps before
// a new session is allowed to start (§6). Global is checked after per-user
// so a rejection always carries the tighter-scoped reason.
func (m *Manager) checkAdmission(ctx context.Context, ownerUserID string) error {
	maxPerUser, maxGlobal := m.caps()

	perUser, err := m.store.CountActiveByUser(ctx, ownerUserID)
	if err != nil {
		return fmt.Errorf("admission: count active by user: %w", err)
	}
	if perUser >= maxPerUser {
		capacityRejectionsTotal.WithLabelValues("user").Inc()
		log.AuditInfo(ctx, "session.admission_rejected", "per-user session cap exceeded", map[string]any{
			"owner_user_id": ownerUserID, "active": perUser, "max": maxPerUser, "scope": "user",
		})
		return lifecycle.NewReasonError(lifecycle.ErrAdmissionRejected, model.RCapExceededUser, nil)
	}

	global, err := m.store.CountActiveGlobal(ctx)
	if err != nil {
		return fmt.Errorf("admission: count active global: %w", err)
	}
	if global >= maxGlobal {
		capacityRejectionsTotal.WithLabelValues("global").Inc()
		log.AuditInfo(ctx, "session.admission_rejected", "global session cap exceeded", map[string]any{
			"owner_user_id": ownerUserID, "active": global, "max": maxGlobal, "scope": "global",
		})
		return lifecycle.NewReasonError(lifecycle.ErrAdmissionRejected, model.RCapExceededGlobal, nil)
	}

	return nil
}

// caps returns the current admission caps, preferring a live CapsSource
// (wired to a config hot-reload Holder, §12) over the static Config values.
func (m *Manager) caps() (maxPerUser, maxGlobal int) {
	if m.capsSource != nil {
		return m.capsSource()
	}
	return m.cfg.MaxSessionsPerUser, m.cfg.MaxSessionsGlobal
}
