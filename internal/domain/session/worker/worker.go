// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package worker implements the per-session supervisor of one simulation
// Engine: command inbox handling, the persistence sidecar, the heartbeat
// loop, and the recovery restore sequence (SPEC_FULL.md §4.3).
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ManuGH/factorysim/internal/domain/session/model"
	"github.com/ManuGH/factorysim/internal/domain/session/ports"
	"github.com/ManuGH/factorysim/internal/domain/session/store"
	"github.com/ManuGH/factorysim/internal/domain/session/supervisor"
	"github.com/rs/zerolog"

	"github.com/ManuGH/factorysim/internal/log"
)

// Config bounds the Worker's own timing, independent of the Supervisor's.
type Config struct {
	HeartbeatInterval time.Duration // default 5s, SPEC_FULL.md §6
	StopSettleDelay   time.Duration // ~100ms yield after STATE_CHANGE{stopped}, §4.3
}

func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 5 * time.Second,
		StopSettleDelay:   100 * time.Millisecond,
	}
}

// EngineFactory constructs a fresh Engine for one session; Init is called by
// the Worker, not the factory.
type EngineFactory func(sessionID string) ports.Engine

// Worker owns exactly one Engine and one persistence sidecar for the
// lifetime of one session's run.
type Worker struct {
	cfg     Config
	store   store.StateStore
	engines EngineFactory
}

func New(cfg Config, st store.StateStore, engines EngineFactory) *Worker {
	return &Worker{cfg: cfg, store: st, engines: engines}
}

// InitPayload is the INIT command payload; RecoverPayload is the RECOVER
// command payload. START carries no payload.
type InitPayload struct {
	ConfigSnapshot string
}

type RecoverPayload struct {
	ConfigSnapshot string
	Payload        model.RecoveryPayload
}

// Func returns a supervisor.WorkerFunc closing over this Worker's
// dependencies for one session run.
func (w *Worker) Func() supervisor.WorkerFunc {
	return func(ctx context.Context, sessionID string, cmds <-chan supervisor.Command, out chan<- supervisor.Event) error {
		return w.run(ctx, sessionID, cmds, out)
	}
}

func (w *Worker) run(ctx context.Context, sessionID string, cmds <-chan supervisor.Command, out chan<- supervisor.Event) error {
	logger := log.WithComponent("worker").With().Str("session_id", sessionID).Logger()
	engine := w.engines(sessionID)

	hbCtx, stopHB := context.WithCancel(ctx)
	defer stopHB()
	go w.heartbeatLoop(hbCtx, sessionID, out)

	sidecarDone := make(chan struct{})
	go func() {
		defer close(sidecarDone)
		w.persistenceSidecar(ctx, sessionID, engine, &logger)
	}()

	for {
		select {
		case <-ctx.Done():
			<-sidecarDone
			return ctx.Err()
		case cmd, ok := <-cmds:
			if !ok {
				<-sidecarDone
				return nil
			}
			switch cmd.Type {
			case model.CmdInit:
				w.handleInit(ctx, engine, cmd.Payload, out, &logger)
			case model.CmdStart:
				emitErrIf(out, sessionID, engine.Start(ctx))
				emitState(out, sessionID, model.StatusRunning)
			case model.CmdPause:
				emitErrIf(out, sessionID, engine.Pause(ctx))
				emitState(out, sessionID, model.StatusPaused)
			case model.CmdResume:
				emitErrIf(out, sessionID, engine.Resume(ctx))
				emitState(out, sessionID, model.StatusRunning)
			case model.CmdRecover:
				if err := w.handleRecover(ctx, engine, cmd.Payload, &logger); err != nil {
					emitError(out, sessionID, err)
					<-sidecarDone
					return err
				}
				emitErrIf(out, sessionID, engine.Start(ctx))
				emitState(out, sessionID, model.StatusRunning)
			case model.CmdStop:
				_ = engine.Stop(ctx)
				emitState(out, sessionID, model.StatusStopped)
				time.Sleep(w.cfg.StopSettleDelay)
				<-sidecarDone
				return nil
			}
		}
	}
}

func (w *Worker) handleInit(ctx context.Context, engine ports.Engine, payload interface{}, out chan<- supervisor.Event, logger *zerolog.Logger) {
	snapshot := ""
	if p, ok := payload.(InitPayload); ok {
		snapshot = p.ConfigSnapshot
	}
	if err := engine.Init(ctx, snapshot); err != nil {
		// Config parse failures fall back to a default config rather than
		// failing INIT outright (§4.3); only a hard Init error is fatal.
		logger.Warn().Err(err).Msg("engine init failed, attempting default config fallback")
		if err2 := engine.Init(ctx, ""); err2 != nil {
			emitError(out, "", err2)
			return
		}
	}
	out <- supervisor.Event{Type: model.EventInitComplete, WallTimestamp: time.Now()}
}

// handleRecover restores, in order, completed cars, buffers, active stops,
// the plant snapshot, then the clock cursor. Each sub-step is skipped
// silently if the Engine lacks the optional capability; any restore error is
// fatal to recovery (§4.3/§4.4).
func (w *Worker) handleRecover(ctx context.Context, engine ports.Engine, payload interface{}, logger *zerolog.Logger) error {
	p, ok := payload.(RecoverPayload)
	if !ok {
		return nil
	}
	if err := engine.Init(ctx, p.ConfigSnapshot); err != nil {
		logger.Warn().Err(err).Msg("engine init failed during recovery, falling back to default config")
		if err2 := engine.Init(ctx, ""); err2 != nil {
			return err2
		}
	}

	if cap, ok := engine.(ports.RestoreCompletedCars); ok {
		if err := cap.RestoreCompletedCars(ctx, p.Payload.CompletedCarIDs); err != nil {
			return err
		}
	}
	if cap, ok := engine.(ports.RestoreBuffers); ok {
		if err := cap.RestoreBuffers(ctx, toBufferSnapshots(p.Payload.BufferStates)); err != nil {
			return err
		}
	}
	if cap, ok := engine.(ports.RestoreStops); ok {
		if err := cap.RestoreStops(ctx, toStopSnapshots(p.Payload.ActiveStops)); err != nil {
			return err
		}
	}
	if cap, ok := engine.(ports.RestoreFromSnapshot); ok && p.Payload.PlantSnapshot != nil {
		if err := cap.RestoreFromSnapshot(ctx, p.Payload.PlantSnapshot.SnapshotData); err != nil {
			return err
		}
	}
	if cap, ok := engine.(ports.SetInitialClock); ok {
		if err := cap.SetInitialClock(ctx, p.Payload.SimulatedTimestamp, p.Payload.CurrentTick); err != nil {
			return err
		}
	}
	return nil
}

func toBufferSnapshots(in []model.BufferState) []ports.BufferSnapshot {
	out := make([]ports.BufferSnapshot, 0, len(in))
	for _, b := range in {
		out = append(out, ports.BufferSnapshot{BufferID: b.BufferID, Capacity: b.Capacity, Count: b.CurrentCount, CarIDs: b.CarIDs})
	}
	return out
}

func toStopSnapshots(in []model.StopEvent) []ports.StopSnapshot {
	out := make([]ports.StopSnapshot, 0, len(in))
	for _, s := range in {
		out = append(out, ports.StopSnapshot{StopID: s.StopID, Location: s.Location, Reason: s.Reason, StartTime: s.StartTime})
	}
	return out
}

func (w *Worker) heartbeatLoop(ctx context.Context, sessionID string, out chan<- supervisor.Event) {
	interval := w.cfg.HeartbeatInterval
	if interval <= 0 {
		interval = DefaultConfig().HeartbeatInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			select {
			case out <- supervisor.Event{Type: model.EventHeartbeat, SessionID: sessionID, WallTimestamp: now, Data: livenessProbe()}:
			default:
			}
		}
	}
}

type liveness struct {
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

var processStart = time.Now()

func livenessProbe() liveness {
	return liveness{UptimeSeconds: time.Since(processStart).Seconds()}
}

// persistenceSidecar writes every Engine domain event to the Store, tagged
// with session_id. Failures are logged and swallowed (§4.3, §7.4): event
// loss is acceptable, the simulation must not halt over a write error.
func (w *Worker) persistenceSidecar(ctx context.Context, sessionID string, engine ports.Engine, logger *zerolog.Logger) {
	for ev := range engine.Events() {
		if err := w.persist(ctx, sessionID, engine, ev); err != nil {
			logger.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("persistence sidecar write failed, dropping event")
		}
	}
}

func (w *Worker) persist(ctx context.Context, sessionID string, engine ports.Engine, ev ports.DomainEvent) error {
	switch ev.Kind {
	case ports.DomainEventCar:
		e, _ := ev.Payload.(model.CarEvent)
		e.SessionID = sessionID
		e.Timestamp = ev.Timestamp
		return w.store.AppendCarEvent(ctx, &e)
	case ports.DomainEventStop:
		e, _ := ev.Payload.(model.StopEvent)
		e.SessionID = sessionID
		return w.store.AppendStopEvent(ctx, &e)
	case ports.DomainEventBuf:
		b, _ := ev.Payload.(model.BufferState)
		b.SessionID = sessionID
		b.Timestamp = ev.Timestamp
		return w.store.AppendBufferState(ctx, &b)
	case ports.DomainEventSnap:
		p, _ := ev.Payload.(model.PlantSnapshot)
		p.SessionID = sessionID
		p.Timestamp = ev.Timestamp
		return w.store.AppendPlantSnapshot(ctx, &p)
	case ports.DomainEventClock:
		ts, tick := engine.Clock()
		_, err := w.store.UpdateSession(ctx, sessionID, func(s *model.Session) error {
			s.SimulatedTimestamp = &ts
			s.CurrentTick = tick
			return nil
		})
		return err
	}
	return nil
}

func emitState(out chan<- supervisor.Event, sessionID string, status model.Status) {
	out <- supervisor.Event{Type: model.EventStateChange, SessionID: sessionID, Data: status, WallTimestamp: time.Now()}
}

func emitError(out chan<- supervisor.Event, sessionID string, err error) {
	out <- supervisor.Event{Type: model.EventError, SessionID: sessionID, Data: err.Error(), WallTimestamp: time.Now()}
}

func emitErrIf(out chan<- supervisor.Event, sessionID string, err error) {
	if err != nil {
		emitError(out, sessionID, err)
	}
}

// marshalSnapshot is a small helper kept for Engine implementations that
// need a canonical JSON encoding of the recovery payload.
func marshalSnapshot(p model.RecoveryPayload) string {
	b, _ := json.Marshal(p)
	return string(b)
}
