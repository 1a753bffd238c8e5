// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package recovery implements the startup-recovery protocol (SPEC_FULL.md
// §4.4): on orchestrator startup, every session the store believes is still
// live is necessarily orphaned (no Worker survived the restart), and is
// reconciled to interrupted or expired before normal operation resumes.
package recovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/factorysim/internal/domain/session/lifecycle"
	"github.com/ManuGH/factorysim/internal/domain/session/model"
	"github.com/ManuGH/factorysim/internal/domain/session/store"
	"github.com/ManuGH/factorysim/internal/log"
)

// Service owns the store-only reconciliation pass and recovery-payload
// assembly. It never touches the Supervisor: spawning the recovered Worker
// is the Manager's job once a caller calls Recover.
type Service struct {
	Store               store.StateStore
	StaleInterruptedAge time.Duration // GC threshold, default 24h (§12)

	mu          sync.Mutex
	lastSummary model.ReconciliationSummary
}

func New(st store.StateStore, staleAge time.Duration) *Service {
	if staleAge <= 0 {
		staleAge = 24 * time.Hour
	}
	return &Service{Store: st, StaleInterruptedAge: staleAge}
}

// LastSummary returns the result of the most recent Reconcile call, the
// zero value if Reconcile has never run (§6 "recovery summary").
func (s *Service) LastSummary() model.ReconciliationSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSummary
}

// Reconcile runs once at orchestrator startup. Every session found running
// or paused is either expired (if past its expires_at) or interrupted (the
// common case: the process died or was redeployed mid-run). Sessions already
// interrupted for longer than StaleInterruptedAge are garbage collected,
// since nobody is going to call Recover on them (§4.4 edge case).
func (s *Service) Reconcile(ctx context.Context) (model.ReconciliationSummary, error) {
	now := time.Now()
	summary := model.ReconciliationSummary{RanAt: now}

	live, err := s.Store.ListSessions(ctx, store.SessionFilter{
		Statuses: []model.Status{model.StatusRunning, model.StatusPaused},
	})
	if err != nil {
		return summary, fmt.Errorf("recovery: list live sessions: %w", err)
	}

	for _, sess := range live {
		if sess.ExpiresAt != nil && now.After(*sess.ExpiresAt) {
			if err := s.markExpired(ctx, sess, now); err != nil {
				log.L().Warn().Err(err).Str("session_id", sess.SessionID).Msg("recovery: mark expired failed")
				continue
			}
			summary.ExpiredCount++
			continue
		}
		if err := s.markInterrupted(ctx, sess, now); err != nil {
			log.L().Warn().Err(err).Str("session_id", sess.SessionID).Msg("recovery: mark interrupted failed")
			continue
		}
		summary.InterruptedCount++
		summary.InterruptedSessions = append(summary.InterruptedSessions, sess.SessionID)
	}

	stale, err := s.Store.ListSessions(ctx, store.SessionFilter{Statuses: []model.Status{model.StatusInterrupted}})
	if err != nil {
		return summary, fmt.Errorf("recovery: list interrupted sessions: %w", err)
	}
	for _, sess := range stale {
		if sess.InterruptedAt == nil || now.Sub(*sess.InterruptedAt) < s.StaleInterruptedAge {
			continue
		}
		if err := s.Store.DeleteSessionCascade(ctx, sess.SessionID); err != nil {
			log.L().Warn().Err(err).Str("session_id", sess.SessionID).Msg("recovery: gc stale interrupted failed")
			continue
		}
		summary.StaleCount++
	}

	log.L().Info().
		Int("interrupted", summary.InterruptedCount).
		Int("expired", summary.ExpiredCount).
		Int("gc", summary.StaleCount).
		Msg("startup reconciliation complete")
	log.AuditInfo(ctx, "recovery.reconciled", "startup reconciliation forced transitions on orphaned sessions", map[string]any{
		"interrupted": summary.InterruptedCount, "expired": summary.ExpiredCount, "gc_stale": summary.StaleCount,
	})

	s.mu.Lock()
	s.lastSummary = summary
	s.mu.Unlock()
	return summary, nil
}

func (s *Service) markExpired(ctx context.Context, sess *model.Session, now time.Time) error {
	t, err := lifecycle.Dispatch(sess.Status, lifecycle.EvExpire)
	if err != nil {
		return err
	}
	_, err = s.Store.UpdateSession(ctx, sess.SessionID, func(r *model.Session) error {
		r.Status = t.To
		r.StoppedAt = &now
		r.StopReason = string(model.RExpired)
		return nil
	})
	return err
}

func (s *Service) markInterrupted(ctx context.Context, sess *model.Session, now time.Time) error {
	t, err := lifecycle.Dispatch(sess.Status, lifecycle.EvOrchestratorDown)
	if err != nil {
		return err
	}
	_, err = s.Store.UpdateSession(ctx, sess.SessionID, func(r *model.Session) error {
		r.Status = t.To
		r.InterruptedAt = &now
		return nil
	})
	return err
}

// AssemblePayload reconstructs the world state handed to a fresh Worker on
// RECOVER: the checkpointed clock cursor, the latest plant snapshot, the
// latest per-buffer occupancy, the distinct completed-unit set, and every
// in-progress stop (§4.3/§4.4). Missing sub-components are nil/empty, never
// an error — a session may never have emitted a plant snapshot, say.
func (s *Service) AssemblePayload(ctx context.Context, sessionID string) (model.RecoveryPayload, error) {
	sess, err := s.Store.GetSession(ctx, sessionID)
	if err != nil {
		return model.RecoveryPayload{}, fmt.Errorf("recovery: get session: %w", err)
	}
	if sess == nil {
		return model.RecoveryPayload{}, fmt.Errorf("recovery: session %s not found", sessionID)
	}

	payload := model.RecoveryPayload{CurrentTick: sess.CurrentTick}
	if sess.SimulatedTimestamp != nil {
		payload.SimulatedTimestamp = *sess.SimulatedTimestamp
	}

	snap, err := s.Store.LatestPlantSnapshot(ctx, sessionID)
	if err != nil {
		return model.RecoveryPayload{}, fmt.Errorf("recovery: latest plant snapshot: %w", err)
	}
	payload.PlantSnapshot = snap

	buffers, err := s.Store.LatestBufferStates(ctx, sessionID)
	if err != nil {
		return model.RecoveryPayload{}, fmt.Errorf("recovery: latest buffer states: %w", err)
	}
	payload.BufferStates = buffers

	completed, err := s.Store.DistinctCompletedCarIDs(ctx, sessionID)
	if err != nil {
		return model.RecoveryPayload{}, fmt.Errorf("recovery: distinct completed car ids: %w", err)
	}
	payload.CompletedCarIDs = completed

	stops, err := s.Store.ListInProgressStops(ctx, sessionID)
	if err != nil {
		return model.RecoveryPayload{}, fmt.Errorf("recovery: in-progress stops: %w", err)
	}
	payload.ActiveStops = stops

	return payload, nil
}
