// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

// Status is the client-visible lifecycle state of a Session.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusRunning      Status = "running"
	StatusPaused       Status = "paused"
	StatusStopped      Status = "stopped"
	StatusExpired      Status = "expired"
	StatusInterrupted  Status = "interrupted"
)

// IsTerminal reports whether the status is final for the session's current run.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusStopped, StatusExpired:
		return true
	}
	return false
}

// IsActive reports whether a session in this status counts against admission caps.
func (s Status) IsActive() bool {
	return s == StatusRunning || s == StatusPaused
}

// CarEventType enumerates the kinds of per-unit events the Engine emits.
type CarEventType string

const (
	CarEventCreated    CarEventType = "CREATED"
	CarEventMoved      CarEventType = "MOVED"
	CarEventCompleted  CarEventType = "COMPLETED"
	CarEventBufferIn   CarEventType = "BUFFER_IN"
	CarEventBufferOut  CarEventType = "BUFFER_OUT"
	CarEventReworkIn   CarEventType = "REWORK_IN"
	CarEventReworkOut  CarEventType = "REWORK_OUT"
)

// StopEventStatus is the lifecycle of a single stop (downtime) event.
type StopEventStatus string

const (
	StopInProgress StopEventStatus = "IN_PROGRESS"
	StopCompleted  StopEventStatus = "COMPLETED"
)

// ReasonCode is a compact, typed failure/rejection signal surfaced to callers.
// Keep these stable: metrics and client UX depend on them.
type ReasonCode string

const (
	RNone                 ReasonCode = "R_NONE"
	RUnknown              ReasonCode = "R_UNKNOWN"
	RBadRequest           ReasonCode = "R_BAD_REQUEST"
	RNotFoundOrDenied     ReasonCode = "R_NOT_FOUND_OR_DENIED"
	RInvalidTransition    ReasonCode = "R_INVALID_TRANSITION"
	RCapExceededUser      ReasonCode = "R_CAP_EXCEEDED_USER"
	RCapExceededGlobal    ReasonCode = "R_CAP_EXCEEDED_GLOBAL"
	RWorkerInitFailed     ReasonCode = "R_WORKER_INIT_FAILED"
	RWorkerInitTimeout    ReasonCode = "R_WORKER_INIT_TIMEOUT"
	RWorkerCrashed        ReasonCode = "R_WORKER_CRASHED"
	RHeartbeatTimeout     ReasonCode = "R_HEARTBEAT_TIMEOUT"
	RExpired              ReasonCode = "R_EXPIRED"
	RUserStop             ReasonCode = "R_USER_STOP"
	ROrchestratorShutdown ReasonCode = "R_ORCHESTRATOR_SHUTDOWN"
	RNotRecoverable       ReasonCode = "R_NOT_RECOVERABLE"
)

// WorkerEventType enumerates the envelope kinds a Worker emits to the Supervisor.
type WorkerEventType string

const (
	EventInitComplete  WorkerEventType = "INIT_COMPLETE"
	EventHeartbeat     WorkerEventType = "HEARTBEAT"
	EventDomain        WorkerEventType = "EVENT"
	EventStateChange   WorkerEventType = "STATE_CHANGE"
	EventError         WorkerEventType = "ERROR"
	EventWorkerCrashed WorkerEventType = "WORKER_CRASHED"
)

// CommandType enumerates the command envelopes the Supervisor sends a Worker.
type CommandType string

const (
	CmdInit    CommandType = "INIT"
	CmdStart   CommandType = "START"
	CmdPause   CommandType = "PAUSE"
	CmdResume  CommandType = "RESUME"
	CmdStop    CommandType = "STOP"
	CmdRecover CommandType = "RECOVER"
)
