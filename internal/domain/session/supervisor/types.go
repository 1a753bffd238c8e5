// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package supervisor

import (
	"context"
	"time"

	"github.com/ManuGH/factorysim/internal/domain/session/model"
)

// HandleStatus is the Supervisor's view of a Worker's lifecycle, distinct
// from the persisted Session.Status.
type HandleStatus string

const (
	HandleInitializing HandleStatus = "initializing"
	HandleReady         HandleStatus = "ready"
	HandleRunning        HandleStatus = "running"
	HandlePaused         HandleStatus = "paused"
	HandleStopping       HandleStatus = "stopping"
	HandleStopped        HandleStatus = "stopped"
)

// Command is the envelope the Supervisor sends into a Worker's inbox.
type Command struct {
	Type    model.CommandType
	Payload interface{}
}

// Event is the envelope a Worker emits to the Supervisor's event bus.
type Event struct {
	Type          model.WorkerEventType
	SessionID     string
	Data          interface{}
	WallTimestamp time.Time
}

// WorkerFunc is the body of one Worker's event loop. It receives its inbox
// and must write every event (including the terminal STATE_CHANGE/ERROR) to
// out before returning. A nil return is a graceful-capable exit; the
// Supervisor's graceful flag (set before STOP is sent) decides whether it is
// reported as a crash.
type WorkerFunc func(ctx context.Context, sessionID string, cmds <-chan Command, out chan<- Event) error

// EventTopic is the Bus topic the Supervisor publishes every Worker event to.
const EventTopic = "session.worker.events"
