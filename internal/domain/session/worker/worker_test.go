// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package worker

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/factorysim/internal/domain/session/model"
	"github.com/ManuGH/factorysim/internal/domain/session/ports"
	"github.com/ManuGH/factorysim/internal/domain/session/store"
	"github.com/ManuGH/factorysim/internal/domain/session/supervisor"
)

type recordingEngine struct {
	events            chan ports.DomainEvent
	restoredCars      []string
	restoredBuffers   []ports.BufferSnapshot
	restoredStops     []ports.StopSnapshot
	restoredSnapshot  string
	restoredClockTS   int64
	restoredClockTick int64
}

func newRecordingEngine(string) ports.Engine {
	return &recordingEngine{events: make(chan ports.DomainEvent, 4)}
}

func (e *recordingEngine) Init(ctx context.Context, cfg string) error { return nil }
func (e *recordingEngine) Start(ctx context.Context) error            { return nil }
func (e *recordingEngine) Pause(ctx context.Context) error            { return nil }
func (e *recordingEngine) Resume(ctx context.Context) error           { return nil }
func (e *recordingEngine) Stop(ctx context.Context) error {
	close(e.events)
	return nil
}
func (e *recordingEngine) Events() <-chan ports.DomainEvent { return e.events }
func (e *recordingEngine) Clock() (int64, int64)            { return e.restoredClockTS, e.restoredClockTick }

func (e *recordingEngine) RestoreCompletedCars(ctx context.Context, carIDs []string) error {
	e.restoredCars = carIDs
	return nil
}
func (e *recordingEngine) RestoreBuffers(ctx context.Context, buffers []ports.BufferSnapshot) error {
	e.restoredBuffers = buffers
	return nil
}
func (e *recordingEngine) RestoreStops(ctx context.Context, stops []ports.StopSnapshot) error {
	e.restoredStops = stops
	return nil
}
func (e *recordingEngine) RestoreFromSnapshot(ctx context.Context, snapshotData string) error {
	e.restoredSnapshot = snapshotData
	return nil
}
func (e *recordingEngine) SetInitialClock(ctx context.Context, ts, tick int64) error {
	e.restoredClockTS, e.restoredClockTick = ts, tick
	return nil
}

func TestWorker_HandleRecover_RestoresEachPart(t *testing.T) {
	ctx := context.Background()
	w := New(DefaultConfig(), store.NewMemoryStore(), newRecordingEngine)
	eng := newRecordingEngine("s1")

	payload := RecoverPayload{
		ConfigSnapshot: "{}",
		Payload: model.RecoveryPayload{
			SimulatedTimestamp: 1000,
			CurrentTick:        5,
			CompletedCarIDs:    []string{"c1", "c2"},
			BufferStates: []model.BufferState{
				{BufferID: "b1", Capacity: 10, CurrentCount: 3, CarIDs: []string{"c1"}},
			},
			ActiveStops: []model.StopEvent{
				{StopID: "st1", Location: "zone-1", StartTime: time.Now()},
			},
			PlantSnapshot: &model.PlantSnapshot{SnapshotData: "snap-blob"},
		},
	}

	logger := noopLogger()
	err := w.handleRecover(ctx, eng, payload, logger)
	require.NoError(t, err)

	re := eng.(*recordingEngine)
	require.Equal(t, []string{"c1", "c2"}, re.restoredCars)
	require.Len(t, re.restoredBuffers, 1)
	require.Equal(t, "b1", re.restoredBuffers[0].BufferID)
	require.Len(t, re.restoredStops, 1)
	require.Equal(t, "st1", re.restoredStops[0].StopID)
	require.Equal(t, "snap-blob", re.restoredSnapshot)
	require.Equal(t, int64(1000), re.restoredClockTS)
	require.Equal(t, int64(5), re.restoredClockTick)
}

func TestWorker_Persist_ClockEventReadsEngineClock(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	w := New(DefaultConfig(), st, newRecordingEngine)

	eng := newRecordingEngine("s1").(*recordingEngine)
	eng.restoredClockTS, eng.restoredClockTick = 4200, 17

	require.NoError(t, st.CreateSession(ctx, &model.Session{SessionID: "s1", OwnerUserID: "u1", Status: model.StatusRunning}))

	err := w.persist(ctx, "s1", eng, ports.DomainEvent{Kind: ports.DomainEventClock})
	require.NoError(t, err)

	sess, err := st.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, sess.SimulatedTimestamp)
	require.Equal(t, int64(4200), *sess.SimulatedTimestamp)
	require.Equal(t, int64(17), sess.CurrentTick)
}

func TestWorker_HandleRecover_SkipsOptionalCapabilitiesWhenAbsent(t *testing.T) {
	ctx := context.Background()
	w := New(DefaultConfig(), store.NewMemoryStore(), func(string) ports.Engine {
		return &minimalEngine{events: make(chan ports.DomainEvent)}
	})
	eng := &minimalEngine{events: make(chan ports.DomainEvent)}

	err := w.handleRecover(ctx, eng, RecoverPayload{Payload: model.RecoveryPayload{}}, noopLogger())
	require.NoError(t, err)
	_ = w
}

type minimalEngine struct {
	events chan ports.DomainEvent
}

func (e *minimalEngine) Init(ctx context.Context, cfg string) error { return nil }
func (e *minimalEngine) Start(ctx context.Context) error            { return nil }
func (e *minimalEngine) Pause(ctx context.Context) error            { return nil }
func (e *minimalEngine) Resume(ctx context.Context) error           { return nil }
func (e *minimalEngine) Stop(ctx context.Context) error             { return nil }
func (e *minimalEngine) Events() <-chan ports.DomainEvent           { return e.events }
func (e *minimalEngine) Clock() (int64, int64)                      { return 0, 0 }

func TestWorkerFunc_GracefulStopReturnsNil(t *testing.T) {
	ctx := context.Background()
	w := New(DefaultConfig(), store.NewMemoryStore(), newRecordingEngine)
	fn := w.Func()

	cmds := make(chan supervisor.Command, 4)
	out := make(chan supervisor.Event, 16)
	done := make(chan error, 1)

	cmds <- supervisor.Command{Type: model.CmdInit, Payload: InitPayload{}}
	cmds <- supervisor.Command{Type: model.CmdStart}

	go func() { done <- fn(ctx, "s1", cmds, out) }()

	require.Eventually(t, func() bool {
		return drainFor(out, model.EventInitComplete)
	}, time.Second, 5*time.Millisecond)

	cmds <- supervisor.Command{Type: model.CmdStop}
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not exit after STOP")
	}
}

func noopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func drainFor(out chan supervisor.Event, kind model.WorkerEventType) bool {
	for {
		select {
		case ev := <-out:
			if ev.Type == kind {
				return true
			}
		default:
			return false
		}
	}
}
