// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/factorysim/internal/domain/session/model"
)

func TestMemoryStore_CreateGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	sess := &model.Session{
		SessionID:    "s1",
		OwnerUserID:  "u1",
		DurationDays: 7,
		SpeedFactor:  60,
		Status:       model.StatusIdle,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, s.CreateSession(ctx, sess))

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, model.StatusIdle, got.Status)

	_, err = s.UpdateSession(ctx, "s1", func(rec *model.Session) error {
		rec.Status = model.StatusRunning
		return nil
	})
	require.NoError(t, err)

	n, err := s.CountActiveByUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, s.AppendCarEvent(ctx, &model.CarEvent{SessionID: "s1", CarID: "c1", EventType: model.CarEventCompleted, Timestamp: time.Now()}))
	ids, err := s.DistinctCompletedCarIDs(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, []string{"c1"}, ids)

	require.NoError(t, s.DeleteSessionCascade(ctx, "s1"))
	got, err = s.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.Nil(t, got)

	evts, truncated, err := s.ListCarEvents(ctx, EventFilter{SessionID: "s1"})
	require.NoError(t, err)
	require.False(t, truncated)
	require.Empty(t, evts)
}

func TestMemoryStore_LatestBufferStates_TieBreakByID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	ts := time.Now()

	require.NoError(t, s.AppendBufferState(ctx, &model.BufferState{SessionID: "s1", BufferID: "b1", CurrentCount: 1, Timestamp: ts}))
	require.NoError(t, s.AppendBufferState(ctx, &model.BufferState{SessionID: "s1", BufferID: "b1", CurrentCount: 2, Timestamp: ts}))

	states, err := s.LatestBufferStates(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, states, 1)
	require.Equal(t, 2, states[0].CurrentCount)
}

func TestMemoryStore_Idempotency(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, ok, err := s.GetIdempotentSessionID(ctx, "key1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.PutIdempotencyKey(ctx, "key1", "s1", time.Minute))
	id, ok, err := s.GetIdempotentSessionID(ctx, "key1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "s1", id)
}
