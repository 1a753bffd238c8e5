// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"context"
	"time"

	"github.com/ManuGH/factorysim/internal/domain/session/lifecycle"
	"github.com/ManuGH/factorysim/internal/domain/session/model"
	"github.com/ManuGH/factorysim/internal/domain/session/supervisor"
	"github.com/ManuGH/factorysim/internal/log"
)

// Run subscribes to the Supervisor's event topic and reacts to WORKER_CRASHED
// envelopes by dispatching EvCrash and persisting the resulting transition
// (§4.2, §8: exactly one WORKER_CRASHED per genuine crash, none for graceful
// exit). It blocks until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	if m.bus == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	sub, err := m.bus.Subscribe(ctx, supervisor.EventTopic)
	if err != nil {
		return err
	}
	defer func() { _ = sub.Close() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-sub.C():
			if !ok {
				return nil
			}
			ev, ok := msg.(supervisor.Event)
			if !ok || ev.Type != model.EventWorkerCrashed {
				continue
			}
			m.handleCrash(ctx, ev.SessionID)
		}
	}
}

func (m *Manager) handleCrash(ctx context.Context, sessionID string) {
	sess, err := m.store.GetSession(ctx, sessionID)
	if err != nil || sess == nil {
		return
	}
	t, err := lifecycle.Dispatch(sess.Status, lifecycle.EvCrash)
	if err != nil {
		log.L().Warn().Err(err).Str("session_id", sessionID).Msg("crash listener: dispatch rejected")
		return
	}
	now := time.Now()
	_, err = m.store.UpdateSession(ctx, sessionID, func(r *model.Session) error {
		r.Status = t.To
		r.StoppedAt = &now
		r.StopReason = string(model.RWorkerCrashed)
		return nil
	})
	if err != nil {
		log.L().Warn().Err(err).Str("session_id", sessionID).Msg("crash listener: persist transition failed")
		return
	}
	recordTransition(sess.Status, t.To)
	log.AuditInfo(ctx, "session.crashed", "worker crash forced a transition", map[string]any{
		"session_id": sessionID, "from": string(sess.Status), "to": string(t.To),
	})
}
