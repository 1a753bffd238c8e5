// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"context"
	"time"

	"github.com/ManuGH/factorysim/internal/domain/session/lifecycle"
	"github.com/ManuGH/factorysim/internal/domain/session/model"
	"github.com/ManuGH/factorysim/internal/domain/session/store"
	"github.com/ManuGH/factorysim/internal/log"
)

// SweeperConfig bounds the expiration scheduler's cadence (§4.1, §12).
type SweeperConfig struct {
	Interval          time.Duration // scan cadence, default 60s
	StaleInterruptedAge time.Duration // GC threshold for never-recovered sessions, default 24h
}

func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Interval:            60 * time.Second,
		StaleInterruptedAge: 24 * time.Hour,
	}
}

// Sweeper periodically expires sessions past their expires_at and garbage
// collects long-interrupted sessions nobody ever recovered.
type Sweeper struct {
	Manager *Manager
	Conf    SweeperConfig
}

func (s *Sweeper) Run(ctx context.Context) {
	if s.Conf.Interval <= 0 {
		s.Conf = DefaultSweeperConfig()
	}
	ticker := time.NewTicker(s.Conf.Interval)
	defer ticker.Stop()

	log.L().Info().Dur("interval", s.Conf.Interval).Msg("expiration sweeper started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce performs one pass: expire overdue active sessions, then GC stale
// interrupted sessions. Deterministic and suitable for unit testing.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	now := time.Now()
	m := s.Manager

	expired, err := m.store.ListSessions(ctx, store.SessionFilter{
		Statuses:      []model.Status{model.StatusRunning, model.StatusPaused},
		ExpiresBefore: now,
	})
	if err != nil {
		log.L().Warn().Err(err).Msg("sweeper: list expiring sessions failed")
	}
	for _, sess := range expired {
		s.expireOne(ctx, sess)
	}

	stale, err := m.store.ListSessions(ctx, store.SessionFilter{Statuses: []model.Status{model.StatusInterrupted}})
	if err != nil {
		log.L().Warn().Err(err).Msg("sweeper: list interrupted sessions failed")
		return
	}
	for _, sess := range stale {
		if sess.InterruptedAt == nil || now.Sub(*sess.InterruptedAt) < s.Conf.StaleInterruptedAge {
			continue
		}
		if err := m.store.DeleteSessionCascade(ctx, sess.SessionID); err != nil {
			log.L().Warn().Err(err).Str("session_id", sess.SessionID).Msg("sweeper: gc stale interrupted session failed")
			continue
		}
		sweeperSweptTotal.WithLabelValues("gc_stale_interrupted").Inc()
		log.AuditInfo(ctx, "session.gc_stale_interrupted", "stale interrupted session discarded", map[string]any{
			"session_id": sess.SessionID, "interrupted_at": sess.InterruptedAt,
		})
	}
}

func (s *Sweeper) expireOne(ctx context.Context, sess *model.Session) {
	m := s.Manager
	t, err := lifecycle.Dispatch(sess.Status, lifecycle.EvExpire)
	if err != nil {
		log.L().Warn().Err(err).Str("session_id", sess.SessionID).Msg("sweeper: expire dispatch rejected")
		return
	}
	if err := m.workers.Terminate(ctx, sess.SessionID); err != nil {
		log.L().Warn().Err(err).Str("session_id", sess.SessionID).Msg("sweeper: terminate worker on expire failed")
	}
	now := time.Now()
	_, err = m.store.UpdateSession(ctx, sess.SessionID, func(r *model.Session) error {
		r.Status = t.To
		r.StoppedAt = &now
		r.StopReason = string(model.RExpired)
		return nil
	})
	if err != nil {
		log.L().Warn().Err(err).Str("session_id", sess.SessionID).Msg("sweeper: persist expire transition failed")
		return
	}
	recordTransition(sess.Status, t.To)
	sweeperSweptTotal.WithLabelValues("expired").Inc()
	log.AuditInfo(ctx, "session.expired", "session expired by the sweeper", map[string]any{
		"session_id": sess.SessionID, "from": string(sess.Status),
	})
}
