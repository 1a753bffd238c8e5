// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ManuGH/factorysim/internal/domain/session/lifecycle"
	"github.com/ManuGH/factorysim/internal/domain/session/model"
	"github.com/ManuGH/factorysim/internal/domain/session/ports"
	"github.com/ManuGH/factorysim/internal/domain/session/store"
	"github.com/ManuGH/factorysim/internal/domain/session/supervisor"
	"github.com/ManuGH/factorysim/internal/domain/session/worker"
	"github.com/ManuGH/factorysim/internal/log"
)

// Manager is the session lifecycle core: admission control, state transitions
// via lifecycle.Dispatch, and wiring each transition to the Supervisor's
// WorkerPool. It never interprets simulation semantics, only orchestrates.
type Manager struct {
	cfg     Config
	store   store.StateStore
	workers *supervisor.WorkerPool
	worker  *worker.Worker
	bus     ports.Bus

	capsSource func() (maxPerUser, maxGlobal int)

	registry sessionRegistry
}

func New(cfg Config, st store.StateStore, pool *supervisor.WorkerPool, w *worker.Worker, bus ports.Bus) *Manager {
	return &Manager{cfg: cfg, store: st, workers: pool, worker: w, bus: bus}
}

// SetCapsSource wires a live admission-cap provider (e.g. an orchconfig
// Holder) so hot-reloaded caps take effect without restarting the manager.
func (m *Manager) SetCapsSource(fn func() (maxPerUser, maxGlobal int)) {
	m.capsSource = fn
}

// CreateRequest carries a client's session creation intent (§6, §12).
type CreateRequest struct {
	OwnerUserID    string
	Name           string
	ConfigSnapshot string
	DurationDays   int
	SpeedFactor    float64
	IdempotencyKey string
}

// Create admits and persists a new idle session, applying the Idempotency-Key
// replay rule from §12: a second Create with the same key returns the
// original session rather than creating a duplicate or re-checking admission.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*model.Session, error) {
	if req.IdempotencyKey != "" {
		if existingID, ok, err := m.store.GetIdempotentSessionID(ctx, req.IdempotencyKey); err != nil {
			return nil, fmt.Errorf("manager: idempotency lookup: %w", err)
		} else if ok {
			return m.store.GetSession(ctx, existingID)
		}
	}

	if err := m.checkAdmission(ctx, req.OwnerUserID); err != nil {
		return nil, err
	}

	durationDays := req.DurationDays
	if durationDays <= 0 {
		durationDays = m.cfg.DefaultDurationDays
	}
	speedFactor := req.SpeedFactor
	if speedFactor <= 0 {
		speedFactor = m.cfg.DefaultSpeedFactor
	}

	sess := &model.Session{
		SessionID:      uuid.NewString(),
		OwnerUserID:    req.OwnerUserID,
		Name:           req.Name,
		ConfigSnapshot: req.ConfigSnapshot,
		DurationDays:   durationDays,
		SpeedFactor:    speedFactor,
		Status:         model.StatusIdle,
		CreatedAt:      time.Now(),
	}
	if err := m.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("manager: create session: %w", err)
	}

	if req.IdempotencyKey != "" {
		if err := m.store.PutIdempotencyKey(ctx, req.IdempotencyKey, sess.SessionID, m.cfg.IdempotencyTTL); err != nil {
			log.L().Warn().Err(err).Str("session_id", sess.SessionID).Msg("failed to persist idempotency key")
		}
	}
	return sess, nil
}

// resolve fetches the owner-scoped session or ErrUnknownSession; not-found
// and access-denied are made indistinguishable to the caller (§8).
func (m *Manager) resolve(ctx context.Context, sessionID, ownerUserID string) (*model.Session, error) {
	sess, err := m.store.GetSessionForOwner(ctx, sessionID, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("manager: resolve session: %w", err)
	}
	if sess == nil {
		return nil, ErrUnknownSession
	}
	return sess, nil
}

// Start spawns a Worker for an idle or stopped session and transitions it
// running once the Worker reports INIT_COMPLETE (§4.1, §4.3).
func (m *Manager) Start(ctx context.Context, sessionID, ownerUserID string) (*model.Session, error) {
	sess, err := m.resolve(ctx, sessionID, ownerUserID)
	if err != nil {
		return nil, err
	}
	t, err := lifecycle.Dispatch(sess.Status, lifecycle.EvStart)
	if err != nil {
		recordStartOutcome("rejected", lifecycle.ReasonOf(err))
		return nil, err
	}
	if err := m.checkAdmission(ctx, sess.OwnerUserID); err != nil {
		recordStartOutcome("rejected", lifecycle.ReasonOf(err))
		return nil, err
	}

	if err := m.workers.Spawn(sessionID, m.worker.Func()); err != nil {
		recordStartOutcome("fail", model.RWorkerInitFailed)
		return nil, lifecycle.NewReasonError(lifecycle.ErrWorkerInitFailed, model.RWorkerInitFailed, err)
	}
	if err := m.workers.Send(sessionID, supervisor.Command{
		Type:    model.CmdInit,
		Payload: worker.InitPayload{ConfigSnapshot: sess.ConfigSnapshot},
	}); err != nil {
		recordStartOutcome("fail", model.RWorkerInitFailed)
		return nil, lifecycle.NewReasonError(lifecycle.ErrWorkerInitFailed, model.RWorkerInitFailed, err)
	}
	if err := m.workers.WaitForInit(ctx, sessionID, m.cfg.WorkerInitTimeout); err != nil {
		recordStartOutcome("fail", lifecycle.ReasonOf(err))
		_ = m.workers.Terminate(ctx, sessionID)
		return nil, err
	}
	if err := m.workers.Send(sessionID, supervisor.Command{Type: model.CmdStart}); err != nil {
		recordStartOutcome("fail", model.RWorkerInitFailed)
		return nil, lifecycle.NewReasonError(lifecycle.ErrWorkerInitFailed, model.RWorkerInitFailed, err)
	}

	now := time.Now()
	expires := model.ExpiresAtFromStart(now, sess.DurationDays)
	updated, err := m.store.UpdateSession(ctx, sessionID, func(r *model.Session) error {
		r.Status = t.To
		r.StartedAt = &now
		r.ExpiresAt = &expires
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("manager: persist start transition: %w", err)
	}
	recordTransition(sess.Status, t.To)
	recordStartOutcome("success", model.RNone)
	return updated, nil
}

// Pause sends PAUSE to the running Worker and persists the transition.
func (m *Manager) Pause(ctx context.Context, sessionID, ownerUserID string) (*model.Session, error) {
	return m.sendAndTransition(ctx, sessionID, ownerUserID, lifecycle.EvPause, model.CmdPause, nil)
}

// Resume sends RESUME to the paused Worker and persists the transition.
func (m *Manager) Resume(ctx context.Context, sessionID, ownerUserID string) (*model.Session, error) {
	return m.sendAndTransition(ctx, sessionID, ownerUserID, lifecycle.EvResume, model.CmdResume, nil)
}

// Stop requests a graceful worker shutdown and persists the stopped
// transition once the Supervisor confirms termination (§5 race-guard).
func (m *Manager) Stop(ctx context.Context, sessionID, ownerUserID, stopReason string) (*model.Session, error) {
	sess, err := m.resolve(ctx, sessionID, ownerUserID)
	if err != nil {
		return nil, err
	}
	t, err := lifecycle.Dispatch(sess.Status, lifecycle.EvStop)
	if err != nil {
		return nil, err
	}
	if err := m.workers.Terminate(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("manager: terminate worker: %w", err)
	}
	now := time.Now()
	updated, err := m.store.UpdateSession(ctx, sessionID, func(r *model.Session) error {
		r.Status = t.To
		r.StoppedAt = &now
		r.StopReason = stopReason
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("manager: persist stop transition: %w", err)
	}
	recordTransition(sess.Status, t.To)
	return updated, nil
}

// Recover spawns a fresh Worker for an interrupted, checkpointed session and
// replays the assembled RecoveryPayload into it (§4.3/§4.4/§9).
func (m *Manager) Recover(ctx context.Context, sessionID, ownerUserID string, payload model.RecoveryPayload) (*model.Session, error) {
	sess, err := m.resolve(ctx, sessionID, ownerUserID)
	if err != nil {
		return nil, err
	}
	if !sess.IsRecoverable() {
		return nil, lifecycle.NewReasonError(lifecycle.ErrSessionNotRecoverable, model.RNotRecoverable, nil)
	}
	t, err := lifecycle.Dispatch(sess.Status, lifecycle.EvRecover)
	if err != nil {
		return nil, err
	}
	if err := m.checkAdmission(ctx, sess.OwnerUserID); err != nil {
		return nil, err
	}

	if err := m.workers.Spawn(sessionID, m.worker.Func()); err != nil {
		return nil, lifecycle.NewReasonError(lifecycle.ErrWorkerInitFailed, model.RWorkerInitFailed, err)
	}
	if err := m.workers.Send(sessionID, supervisor.Command{
		Type: model.CmdRecover,
		Payload: worker.RecoverPayload{
			ConfigSnapshot: sess.ConfigSnapshot,
			Payload:        payload,
		},
	}); err != nil {
		_ = m.workers.Terminate(ctx, sessionID)
		return nil, lifecycle.NewReasonError(lifecycle.ErrWorkerInitFailed, model.RWorkerInitFailed, err)
	}
	if err := m.workers.WaitForInit(ctx, sessionID, m.cfg.WorkerInitTimeout); err != nil {
		_ = m.workers.Terminate(ctx, sessionID)
		return nil, err
	}

	updated, err := m.store.UpdateSession(ctx, sessionID, func(r *model.Session) error {
		r.Status = t.To
		r.InterruptedAt = nil
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("manager: persist recover transition: %w", err)
	}
	recordTransition(sess.Status, t.To)
	return updated, nil
}

// Discard marks an interrupted, unrecoverable session stopped without
// spawning a Worker (§4.4 edge case: checkpoint missing or corrupt).
func (m *Manager) Discard(ctx context.Context, sessionID, ownerUserID string) (*model.Session, error) {
	sess, err := m.resolve(ctx, sessionID, ownerUserID)
	if err != nil {
		return nil, err
	}
	t, err := lifecycle.Dispatch(sess.Status, lifecycle.EvDiscard)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	updated, err := m.store.UpdateSession(ctx, sessionID, func(r *model.Session) error {
		r.Status = t.To
		r.StoppedAt = &now
		r.StopReason = string(model.RNotRecoverable)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("manager: persist discard transition: %w", err)
	}
	recordTransition(sess.Status, t.To)
	return updated, nil
}

// Delete removes an idle or terminal (stopped, expired) session and all of
// its event-table rows. Delete
// never transitions state (there is no "to" status) so it is validated
// directly against the decision table rather than through Dispatch.
func (m *Manager) Delete(ctx context.Context, sessionID, ownerUserID string) error {
	sess, err := m.resolve(ctx, sessionID, ownerUserID)
	if err != nil {
		return err
	}
	d, ok := lifecycle.DecisionFor(sess.Status, lifecycle.EvDelete)
	if !ok || !d.Allowed {
		return lifecycle.NewReasonError(lifecycle.ErrInvalidTransition, model.RInvalidTransition, nil)
	}
	return m.store.DeleteSessionCascade(ctx, sessionID)
}

// Get returns the owner-scoped session, or ErrUnknownSession.
func (m *Manager) Get(ctx context.Context, sessionID, ownerUserID string) (*model.Session, error) {
	return m.resolve(ctx, sessionID, ownerUserID)
}

// List returns every session owned by ownerUserID.
func (m *Manager) List(ctx context.Context, ownerUserID string) ([]*model.Session, error) {
	return m.store.ListSessions(ctx, store.SessionFilter{OwnerUserID: ownerUserID})
}

func (m *Manager) sendAndTransition(ctx context.Context, sessionID, ownerUserID string, ev lifecycle.EventKind, cmd model.CommandType, payload interface{}) (*model.Session, error) {
	sess, err := m.resolve(ctx, sessionID, ownerUserID)
	if err != nil {
		return nil, err
	}
	t, err := lifecycle.Dispatch(sess.Status, ev)
	if err != nil {
		return nil, err
	}
	if err := m.workers.Send(sessionID, supervisor.Command{Type: cmd, Payload: payload}); err != nil {
		return nil, fmt.Errorf("manager: send %s: %w", cmd, err)
	}
	updated, err := m.store.UpdateSession(ctx, sessionID, func(r *model.Session) error {
		r.Status = t.To
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("manager: persist %s transition: %w", ev, err)
	}
	recordTransition(sess.Status, t.To)
	return updated, nil
}
