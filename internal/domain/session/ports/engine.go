// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import (
	"context"
	"time"
)

// DomainEventKind enumerates the kinds of simulation events an Engine emits.
type DomainEventKind string

const (
	DomainEventCar   DomainEventKind = "car"
	DomainEventStop  DomainEventKind = "stop"
	DomainEventBuf   DomainEventKind = "buffer"
	DomainEventSnap  DomainEventKind = "snapshot"
	DomainEventClock DomainEventKind = "clock"
)

// DomainEvent is one opaque event produced by the simulation runtime; the
// Worker's persistence sidecar maps Kind/Payload into the appropriate Store
// row without understanding the simulation semantics.
type DomainEvent struct {
	Kind      DomainEventKind
	Payload   interface{} // concrete shape depends on Kind; Engine-defined
	Timestamp time.Time
}

// Engine is the simulation runtime collaborator. It is an external,
// opaque-to-the-core component: the orchestrator never interprets car
// movement, OEE, or plant topology — only the command/event contract below.
type Engine interface {
	// Init parses the config snapshot and prepares the simulation without
	// advancing simulated time.
	Init(ctx context.Context, configSnapshot string) error

	// Start begins advancing simulated time at the session's speed factor.
	Start(ctx context.Context) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error

	// Stop halts the simulation; the Engine must flush any buffered domain
	// events to Events() before Stop returns.
	Stop(ctx context.Context) error

	// Events returns the channel the Worker drains domain events from. The
	// channel is closed once the Engine has nothing further to emit.
	Events() <-chan DomainEvent

	// Clock returns the current simulated timestamp and tick counter.
	Clock() (simulatedTimestamp int64, tick int64)
}

// RestoreCompletedCars is an optional recovery capability: pre-seed the set
// of car ids already known complete before resuming.
type RestoreCompletedCars interface {
	RestoreCompletedCars(ctx context.Context, carIDs []string) error
}

// RestoreBuffers is an optional recovery capability: pre-seed buffer occupancy.
type RestoreBuffers interface {
	RestoreBuffers(ctx context.Context, buffers []BufferSnapshot) error
}

// RestoreStops is an optional recovery capability: pre-seed in-progress stops.
type RestoreStops interface {
	RestoreStops(ctx context.Context, stops []StopSnapshot) error
}

// RestoreFromSnapshot is an optional recovery capability: restore full plant
// state from an opaque snapshot blob.
type RestoreFromSnapshot interface {
	RestoreFromSnapshot(ctx context.Context, snapshotData string) error
}

// SetInitialClock is an optional recovery capability: seed the simulated
// clock cursor before Start is issued.
type SetInitialClock interface {
	SetInitialClock(ctx context.Context, simulatedTimestamp, tick int64) error
}

// BufferSnapshot and StopSnapshot are the wire shapes handed to the optional
// restore capabilities; they intentionally mirror the Store row shapes so no
// translation is needed between recovery assembly and Engine restore calls.
type BufferSnapshot struct {
	BufferID string
	Capacity int
	Count    int
	CarIDs   []string
}

type StopSnapshot struct {
	StopID    string
	Location  string
	Reason    string
	StartTime time.Time
}
