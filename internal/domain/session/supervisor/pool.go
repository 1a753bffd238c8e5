// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/factorysim/internal/domain/session/lifecycle"
	"github.com/ManuGH/factorysim/internal/domain/session/model"
	"github.com/ManuGH/factorysim/internal/domain/session/ports"
	"github.com/ManuGH/factorysim/internal/log"
)

type handle struct {
	sessionID     string
	spawnedAt     time.Time
	cmds          chan Command
	done          chan struct{}
	cancel        context.CancelFunc

	mu            sync.Mutex
	status        HandleStatus
	graceful      bool
	lastHeartbeat time.Time
}

func (h *handle) touchHeartbeat(t time.Time) {
	h.mu.Lock()
	h.lastHeartbeat = t
	h.mu.Unlock()
}

func (h *handle) setStatus(s HandleStatus) {
	h.mu.Lock()
	h.status = s
	h.mu.Unlock()
}

func (h *handle) snapshot() (HandleStatus, bool, time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status, h.graceful, h.lastHeartbeat
}

// Config bounds the Supervisor's timing per SPEC_FULL.md §6 default caps.
type Config struct {
	HeartbeatMonitorInterval time.Duration // cadence of the crash-detection sweep (default 5s)
	HeartbeatTimeout         time.Duration // liveness threshold (default 15s)
	StopGrace                time.Duration // voluntary-exit window before force-terminate (default 1s)
	DrainTimeout             time.Duration // extra bound for persistence-queue drain (§13 open question)
}

func DefaultConfig() Config {
	return Config{
		HeartbeatMonitorInterval: 5 * time.Second,
		HeartbeatTimeout:         15 * time.Second,
		StopGrace:                1 * time.Second,
		DrainTimeout:             500 * time.Millisecond,
	}
}

// WorkerPool is the Supervisor: it owns the session_id -> handle map, routes
// commands in and events out, and is the sole source of WORKER_CRASHED
// events (SPEC_FULL.md §4.2).
type WorkerPool struct {
	cfg Config
	bus ports.Bus

	mu      sync.Mutex
	handles map[string]*handle

	stopMonitor context.CancelFunc
	monitorDone chan struct{}
}

func NewWorkerPool(cfg Config, bus ports.Bus) *WorkerPool {
	return &WorkerPool{cfg: cfg, bus: bus, handles: make(map[string]*handle)}
}

// Run starts the heartbeat-timeout monitor; call once at orchestrator startup.
func (p *WorkerPool) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.stopMonitor = cancel
	p.monitorDone = make(chan struct{})
	go p.monitorHeartbeats(ctx)
}

func (p *WorkerPool) Stop() {
	if p.stopMonitor != nil {
		p.stopMonitor()
		<-p.monitorDone
	}
}

// Spawn registers a new handle and starts fn as the worker's event loop. It
// returns immediately without waiting for INIT_COMPLETE.
func (p *WorkerPool) Spawn(sessionID string, fn WorkerFunc) error {
	p.mu.Lock()
	if _, exists := p.handles[sessionID]; exists {
		p.mu.Unlock()
		return fmt.Errorf("supervisor: worker for session %s already running", sessionID)
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{
		sessionID: sessionID,
		spawnedAt: time.Now(),
		cmds:      make(chan Command, 8),
		done:      make(chan struct{}),
		cancel:    cancel,
		status:    HandleInitializing,
	}
	p.handles[sessionID] = h
	p.mu.Unlock()

	go p.runWorker(ctx, h, fn)
	return nil
}

func (p *WorkerPool) runWorker(ctx context.Context, h *handle, fn WorkerFunc) {
	out := make(chan Event, 32)
	fwdDone := make(chan struct{})
	go func() {
		defer close(fwdDone)
		for ev := range out {
			p.dispatch(h, ev)
		}
	}()

	err := fn(ctx, h.sessionID, h.cmds, out)
	close(out)
	<-fwdDone
	close(h.done)

	_, graceful, _ := h.snapshot()
	p.mu.Lock()
	stillRegistered := p.handles[h.sessionID] == h
	if stillRegistered {
		delete(p.handles, h.sessionID)
	}
	p.mu.Unlock()

	if stillRegistered && !graceful {
		p.publish(Event{
			Type:          model.EventWorkerCrashed,
			SessionID:     h.sessionID,
			Data:          err,
			WallTimestamp: time.Now(),
		})
	}
}

// dispatch updates handle bookkeeping from an event and forwards it to the bus.
func (p *WorkerPool) dispatch(h *handle, ev Event) {
	switch ev.Type {
	case model.EventHeartbeat:
		h.touchHeartbeat(ev.WallTimestamp)
	case model.EventInitComplete:
		h.setStatus(HandleReady)
	case model.EventStateChange:
		if s, ok := ev.Data.(HandleStatus); ok {
			h.setStatus(s)
		}
	}
	p.publish(ev)
}

func (p *WorkerPool) publish(ev Event) {
	if p.bus == nil {
		return
	}
	_ = p.bus.Publish(context.Background(), EventTopic, ev)
}

// WaitForInit blocks until the worker reaches HandleReady, its handle is
// removed, ctx is done, or timeout fires. An ERROR event does not end the
// wait: a worker whose INIT failed is reported as an init timeout.
func (p *WorkerPool) WaitForInit(ctx context.Context, sessionID string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		p.mu.Lock()
		h, ok := p.handles[sessionID]
		p.mu.Unlock()
		if !ok {
			return lifecycle.NewReasonError(lifecycle.ErrWorkerInitFailed, model.RWorkerInitFailed, fmt.Errorf("handle for %s vanished during init", sessionID))
		}
		status, _, _ := h.snapshot()
		if status == HandleReady {
			return nil
		}
		if time.Now().After(deadline) {
			return lifecycle.NewReasonError(lifecycle.ErrWorkerInitTimeout, model.RWorkerInitTimeout, fmt.Errorf("worker init timed out after %s", timeout))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Send enqueues a command without waiting for the worker to act on it.
func (p *WorkerPool) Send(sessionID string, cmd Command) error {
	p.mu.Lock()
	h, ok := p.handles[sessionID]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("supervisor: no worker for session %s", sessionID)
	}
	select {
	case h.cmds <- cmd:
		return nil
	default:
		return fmt.Errorf("supervisor: command inbox full for session %s", sessionID)
	}
}

// Terminate performs the graceful-shutdown handshake from SPEC_FULL.md §4.2
// and §5's race guard: set graceful, remove from the live map, THEN signal
// STOP, wait a bounded grace period, then force-cancel.
func (p *WorkerPool) Terminate(ctx context.Context, sessionID string) error {
	p.mu.Lock()
	h, ok := p.handles[sessionID]
	if ok {
		h.mu.Lock()
		h.graceful = true
		h.status = HandleStopping
		h.mu.Unlock()
		delete(p.handles, sessionID)
	}
	p.mu.Unlock()

	if !ok {
		return nil // idempotent: no-op on an absent handle (§8)
	}

	select {
	case h.cmds <- Command{Type: model.CmdStop}:
	default:
		log.L().Warn().Str("session_id", sessionID).Msg("stop command inbox full, forcing termination")
	}

	select {
	case <-h.done:
		return nil
	case <-time.After(p.cfg.StopGrace + p.cfg.DrainTimeout):
		h.cancel()
		<-h.done
		return nil
	}
}

// TerminateAll terminates every live worker in parallel.
func (p *WorkerPool) TerminateAll(ctx context.Context) {
	p.mu.Lock()
	ids := make([]string, 0, len(p.handles))
	for id := range p.handles {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(sessionID string) {
			defer wg.Done()
			_ = p.Terminate(ctx, sessionID)
		}(id)
	}
	wg.Wait()
}

func (p *WorkerPool) monitorHeartbeats(ctx context.Context) {
	defer close(p.monitorDone)
	ticker := time.NewTicker(p.cfg.HeartbeatMonitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sweepHeartbeats()
		}
	}
}

func (p *WorkerPool) sweepHeartbeats() {
	now := time.Now()
	p.mu.Lock()
	var stale []*handle
	for _, h := range p.handles {
		status, _, lastHB := h.snapshot()
		if status == HandleInitializing || status == HandleStopping {
			continue
		}
		baseline := lastHB
		if baseline.IsZero() {
			baseline = h.spawnedAt
		}
		if now.Sub(baseline) > p.cfg.HeartbeatTimeout {
			stale = append(stale, h)
		}
	}
	for _, h := range stale {
		delete(p.handles, h.sessionID)
	}
	p.mu.Unlock()

	for _, h := range stale {
		h.cancel()
		p.publish(Event{
			Type:          model.EventWorkerCrashed,
			SessionID:     h.sessionID,
			Data:          "heartbeat_timeout",
			WallTimestamp: now,
		})
	}
}
