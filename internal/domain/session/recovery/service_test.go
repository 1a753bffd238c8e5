// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package recovery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/factorysim/internal/domain/session/model"
	"github.com/ManuGH/factorysim/internal/domain/session/store"
)

func TestReconcile_MarksLiveSessionsInterrupted(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := New(st, 24*time.Hour)

	now := time.Now()
	require.NoError(t, st.CreateSession(ctx, &model.Session{
		SessionID:   "s-running",
		OwnerUserID: "u1",
		Status:      model.StatusRunning,
		CreatedAt:   now,
		ExpiresAt:   ptr(now.Add(time.Hour)),
	}))
	require.NoError(t, st.CreateSession(ctx, &model.Session{
		SessionID:   "s-paused",
		OwnerUserID: "u1",
		Status:      model.StatusPaused,
		CreatedAt:   now,
		ExpiresAt:   ptr(now.Add(time.Hour)),
	}))

	summary, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, summary.InterruptedCount)
	require.ElementsMatch(t, []string{"s-running", "s-paused"}, summary.InterruptedSessions)

	got, err := st.GetSession(ctx, "s-running")
	require.NoError(t, err)
	require.Equal(t, model.StatusInterrupted, got.Status)
	require.NotNil(t, got.InterruptedAt)
}

func TestReconcile_PastExpiryGoesToExpiredNotInterrupted(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := New(st, 24*time.Hour)

	now := time.Now()
	require.NoError(t, st.CreateSession(ctx, &model.Session{
		SessionID:   "s-overdue",
		OwnerUserID: "u1",
		Status:      model.StatusRunning,
		CreatedAt:   now.Add(-48 * time.Hour),
		ExpiresAt:   ptr(now.Add(-time.Hour)),
	}))

	summary, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, summary.ExpiredCount)
	require.Equal(t, 0, summary.InterruptedCount)

	got, err := st.GetSession(ctx, "s-overdue")
	require.NoError(t, err)
	require.Equal(t, model.StatusExpired, got.Status)
}

func TestReconcile_GCsStaleInterruptedSessions(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := New(st, time.Hour)

	now := time.Now()
	require.NoError(t, st.CreateSession(ctx, &model.Session{
		SessionID:          "s-stale",
		OwnerUserID:        "u1",
		Status:              model.StatusInterrupted,
		CreatedAt:           now.Add(-48 * time.Hour),
		InterruptedAt:       ptr(now.Add(-2 * time.Hour)),
		SimulatedTimestamp:  ptr64(1000),
	}))
	require.NoError(t, st.CreateSession(ctx, &model.Session{
		SessionID:         "s-fresh",
		OwnerUserID:       "u1",
		Status:            model.StatusInterrupted,
		CreatedAt:         now,
		InterruptedAt:     ptr(now.Add(-time.Minute)),
		SimulatedTimestamp: ptr64(500),
	}))

	summary, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, summary.StaleCount)

	stale, err := st.GetSession(ctx, "s-stale")
	require.NoError(t, err)
	require.Nil(t, stale)

	fresh, err := st.GetSession(ctx, "s-fresh")
	require.NoError(t, err)
	require.NotNil(t, fresh)
}

func TestAssemblePayload_GathersAllComponents(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := New(st, 24*time.Hour)

	now := time.Now()
	require.NoError(t, st.CreateSession(ctx, &model.Session{
		SessionID:          "s1",
		OwnerUserID:        "u1",
		Status:              model.StatusInterrupted,
		CreatedAt:           now,
		SimulatedTimestamp:  ptr64(12345),
		CurrentTick:         42,
	}))
	require.NoError(t, st.AppendPlantSnapshot(ctx, &model.PlantSnapshot{
		SessionID:    "s1",
		Timestamp:    now,
		SnapshotData: `{"foo":"bar"}`,
	}))
	require.NoError(t, st.AppendBufferState(ctx, &model.BufferState{
		SessionID:    "s1",
		BufferID:     "buf-1",
		Capacity:     10,
		CurrentCount: 3,
		CarIDs:       []string{"car-1", "car-2", "car-3"},
		Timestamp:    now,
	}))
	require.NoError(t, st.AppendCarEvent(ctx, &model.CarEvent{
		SessionID: "s1",
		CarID:     "car-9",
		EventType: model.CarEventCompleted,
		Timestamp: now,
	}))
	require.NoError(t, st.AppendStopEvent(ctx, &model.StopEvent{
		SessionID: "s1",
		StopID:    "stop-1",
		StartTime: now,
		Status:    model.StopInProgress,
	}))

	payload, err := svc.AssemblePayload(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, int64(12345), payload.SimulatedTimestamp)
	require.Equal(t, int64(42), payload.CurrentTick)
	require.NotNil(t, payload.PlantSnapshot)
	require.Len(t, payload.BufferStates, 1)
	require.Contains(t, payload.CompletedCarIDs, "car-9")
	require.Len(t, payload.ActiveStops, 1)
}

func ptr(t time.Time) *time.Time { return &t }
func ptr64(v int64) *int64       { return &v }
