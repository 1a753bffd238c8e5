// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"time"

	"github.com/ManuGH/factorysim/internal/domain/session/model"
)

// SessionFilter narrows ListSessions/ScanSessions queries.
type SessionFilter struct {
	OwnerUserID string
	Statuses    []model.Status
	ExpiresBefore time.Time
	Limit         int
}

// EventFilter narrows event-table reads (§8: limit is always clamped by the Store).
type EventFilter struct {
	SessionID string
	Limit     int
}

// MaxEventRowLimit is the hard cap applied to every event-table read (§8 boundary behavior).
const MaxEventRowLimit = 10_000

// StateStore is the durable repository for sessions and their per-session
// time-series tables. Implementations hide SQL dialect differences behind
// query/execute/transaction, per SPEC_FULL.md §9 "Heterogeneous SQL dialects".
type StateStore interface {
	// Sessions
	CreateSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
	GetSessionForOwner(ctx context.Context, sessionID, ownerUserID string) (*model.Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]*model.Session, error)
	ScanSessions(ctx context.Context, fn func(*model.Session) error) error
	// UpdateSession performs a read-modify-write of one session row inside a
	// transaction; fn mutates the in-memory copy, and the store persists it.
	UpdateSession(ctx context.Context, sessionID string, fn func(*model.Session) error) (*model.Session, error)
	CountActiveByUser(ctx context.Context, ownerUserID string) (int, error)
	CountActiveGlobal(ctx context.Context) (int, error)
	// DeleteSessionCascade removes the session row and every row in every
	// session-scoped table for sessionID, atomically.
	DeleteSessionCascade(ctx context.Context, sessionID string) error

	// Idempotent create support (§12 supplement).
	GetIdempotentSessionID(ctx context.Context, key string) (string, bool, error)
	PutIdempotencyKey(ctx context.Context, key, sessionID string, ttl time.Duration) error

	// Event tables
	AppendCarEvent(ctx context.Context, e *model.CarEvent) error
	AppendStopEvent(ctx context.Context, e *model.StopEvent) error
	CompleteStopEvent(ctx context.Context, sessionID, stopID string, endTime time.Time, durationMS int64) error
	AppendBufferState(ctx context.Context, b *model.BufferState) error
	AppendPlantSnapshot(ctx context.Context, p *model.PlantSnapshot) error
	AppendOEE(ctx context.Context, o *model.OEERecord) error
	AppendMTTRMTBF(ctx context.Context, m *model.MTTRMTBFRecord) error

	ListCarEvents(ctx context.Context, f EventFilter) ([]model.CarEvent, bool, error)
	ListStopEvents(ctx context.Context, f EventFilter) ([]model.StopEvent, bool, error)
	ListInProgressStops(ctx context.Context, sessionID string) ([]model.StopEvent, error)
	LatestPlantSnapshot(ctx context.Context, sessionID string) (*model.PlantSnapshot, error)
	LatestBufferStates(ctx context.Context, sessionID string) ([]model.BufferState, error)
	DistinctCompletedCarIDs(ctx context.Context, sessionID string) ([]string, error)

	Close() error
}
