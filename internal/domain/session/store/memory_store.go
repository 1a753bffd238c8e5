// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ManuGH/factorysim/internal/domain/session/model"
)

// MemoryStore is an in-process StateStore used by unit tests (SPEC_FULL.md
// §10.4) and for local/dev runs without a real SQL backend.
type MemoryStore struct {
	mu sync.Mutex

	sessions     map[string]*model.Session
	idempotency  map[string]idemEntry
	carEvents    []model.CarEvent
	stopEvents   []model.StopEvent
	bufferStates []model.BufferState
	snapshots    []model.PlantSnapshot
	oee          []model.OEERecord
	mttrMtbf     []model.MTTRMTBFRecord

	nextID int64
}

type idemEntry struct {
	sessionID string
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:    make(map[string]*model.Session),
		idempotency: make(map[string]idemEntry),
	}
}

func (m *MemoryStore) Close() error { return nil }

func cloneSession(s *model.Session) *model.Session {
	cp := *s
	return &cp
}

func (m *MemoryStore) CreateSession(ctx context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[s.SessionID]; exists {
		return fmt.Errorf("session %s already exists", s.SessionID)
	}
	m.sessions[s.SessionID] = cloneSession(s)
	return nil
}

func (m *MemoryStore) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return cloneSession(s), nil
}

func (m *MemoryStore) GetSessionForOwner(ctx context.Context, sessionID, ownerUserID string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || s.OwnerUserID != ownerUserID {
		return nil, nil
	}
	return cloneSession(s), nil
}

func (m *MemoryStore) ListSessions(ctx context.Context, filter SessionFilter) ([]*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	statusSet := map[model.Status]bool{}
	for _, st := range filter.Statuses {
		statusSet[st] = true
	}

	var out []*model.Session
	for _, s := range m.sessions {
		if filter.OwnerUserID != "" && s.OwnerUserID != filter.OwnerUserID {
			continue
		}
		if len(statusSet) > 0 && !statusSet[s.Status] {
			continue
		}
		if !filter.ExpiresBefore.IsZero() && (s.ExpiresAt == nil || !s.ExpiresAt.Before(filter.ExpiresBefore)) {
			continue
		}
		out = append(out, cloneSession(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out, nil
}

func (m *MemoryStore) ScanSessions(ctx context.Context, fn func(*model.Session) error) error {
	sessions, err := m.ListSessions(ctx, SessionFilter{})
	if err != nil {
		return err
	}
	for _, s := range sessions {
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryStore) UpdateSession(ctx context.Context, sessionID string, fn func(*model.Session) error) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	cp := cloneSession(s)
	if err := fn(cp); err != nil {
		return nil, err
	}
	m.sessions[sessionID] = cp
	return cloneSession(cp), nil
}

func (m *MemoryStore) CountActiveByUser(ctx context.Context, ownerUserID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.OwnerUserID == ownerUserID && s.Status.IsActive() {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CountActiveGlobal(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.Status.IsActive() {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) DeleteSessionCascade(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	m.carEvents = filterOutSession(m.carEvents, sessionID, func(e model.CarEvent) string { return e.SessionID })
	m.stopEvents = filterOutSession(m.stopEvents, sessionID, func(e model.StopEvent) string { return e.SessionID })
	m.bufferStates = filterOutSession(m.bufferStates, sessionID, func(e model.BufferState) string { return e.SessionID })
	m.snapshots = filterOutSession(m.snapshots, sessionID, func(e model.PlantSnapshot) string { return e.SessionID })
	m.oee = filterOutSession(m.oee, sessionID, func(e model.OEERecord) string { return e.SessionID })
	m.mttrMtbf = filterOutSession(m.mttrMtbf, sessionID, func(e model.MTTRMTBFRecord) string { return e.SessionID })
	return nil
}

func filterOutSession[T any](in []T, sessionID string, key func(T) string) []T {
	var out []T
	for _, v := range in {
		if key(v) != sessionID {
			out = append(out, v)
		}
	}
	return out
}

func (m *MemoryStore) GetIdempotentSessionID(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.idempotency[key]
	if !ok || time.Now().After(e.expiresAt) {
		return "", false, nil
	}
	return e.sessionID, true, nil
}

func (m *MemoryStore) PutIdempotencyKey(ctx context.Context, key, sessionID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idempotency[key] = idemEntry{sessionID: sessionID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *MemoryStore) nextRowID() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) AppendCarEvent(ctx context.Context, e *model.CarEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.nextRowID()
	m.carEvents = append(m.carEvents, *e)
	return nil
}

func (m *MemoryStore) AppendStopEvent(ctx context.Context, e *model.StopEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.nextRowID()
	m.stopEvents = append(m.stopEvents, *e)
	return nil
}

func (m *MemoryStore) CompleteStopEvent(ctx context.Context, sessionID, stopID string, endTime time.Time, durationMS int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.stopEvents {
		e := &m.stopEvents[i]
		if e.SessionID == sessionID && e.StopID == stopID && e.Status == model.StopInProgress {
			t := endTime
			e.EndTime = &t
			d := durationMS
			e.DurationMS = &d
			e.Status = model.StopCompleted
			return nil
		}
	}
	return fmt.Errorf("in-progress stop %s not found for session %s", stopID, sessionID)
}

func (m *MemoryStore) AppendBufferState(ctx context.Context, b *model.BufferState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.nextRowID()
	m.bufferStates = append(m.bufferStates, *b)
	return nil
}

func (m *MemoryStore) AppendPlantSnapshot(ctx context.Context, p *model.PlantSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextRowID()
	m.snapshots = append(m.snapshots, *p)
	return nil
}

func (m *MemoryStore) AppendOEE(ctx context.Context, o *model.OEERecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.nextRowID()
	m.oee = append(m.oee, *o)
	return nil
}

func (m *MemoryStore) AppendMTTRMTBF(ctx context.Context, mt *model.MTTRMTBFRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mt.ID = m.nextRowID()
	m.mttrMtbf = append(m.mttrMtbf, *mt)
	return nil
}

func (m *MemoryStore) ListCarEvents(ctx context.Context, f EventFilter) ([]model.CarEvent, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit, truncated := clampLimit(f.Limit)
	var out []model.CarEvent
	for _, e := range m.carEvents {
		if e.SessionID == f.SessionID {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
		truncated = true
	}
	return out, truncated, nil
}

func (m *MemoryStore) ListStopEvents(ctx context.Context, f EventFilter) ([]model.StopEvent, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit, truncated := clampLimit(f.Limit)
	var out []model.StopEvent
	for _, e := range m.stopEvents {
		if e.SessionID == f.SessionID {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
		truncated = true
	}
	return out, truncated, nil
}

func (m *MemoryStore) ListInProgressStops(ctx context.Context, sessionID string) ([]model.StopEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.StopEvent
	for _, e := range m.stopEvents {
		if e.SessionID == sessionID && e.Status == model.StopInProgress {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryStore) LatestPlantSnapshot(ctx context.Context, sessionID string) (*model.PlantSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *model.PlantSnapshot
	for i := range m.snapshots {
		s := &m.snapshots[i]
		if s.SessionID != sessionID {
			continue
		}
		if best == nil || s.Timestamp.After(best.Timestamp) || (s.Timestamp.Equal(best.Timestamp) && s.ID > best.ID) {
			cp := *s
			best = &cp
		}
	}
	return best, nil
}

func (m *MemoryStore) LatestBufferStates(ctx context.Context, sessionID string) ([]model.BufferState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := map[string]model.BufferState{}
	for _, b := range m.bufferStates {
		if b.SessionID != sessionID {
			continue
		}
		cur, ok := latest[b.BufferID]
		if !ok || b.Timestamp.After(cur.Timestamp) || (b.Timestamp.Equal(cur.Timestamp) && b.ID > cur.ID) {
			latest[b.BufferID] = b
		}
	}
	var out []model.BufferState
	for _, b := range latest {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BufferID < out[j].BufferID })
	return out, nil
}

func (m *MemoryStore) DistinctCompletedCarIDs(ctx context.Context, sessionID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	for _, e := range m.carEvents {
		if e.SessionID == sessionID && e.EventType == model.CarEventCompleted {
			seen[e.CarID] = true
		}
	}
	var out []string
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

var _ StateStore = (*MemoryStore)(nil)
