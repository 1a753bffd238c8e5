// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import "time"

// DefaultDurationDays and DefaultSpeedFactor are the fallback values used
// when a caller does not specify them at create time (see §6 default caps).
const (
	DefaultDurationDays = 7
	DefaultSpeedFactor  = 60
)

// Session is the durable, client-visible record of one simulation instance.
// It is keyed by an opaque, UUID-like SessionID and owned by exactly one user.
type Session struct {
	SessionID      string `json:"sessionId"`
	OwnerUserID    string `json:"ownerUserId"`
	Name           string `json:"name,omitempty"`
	ConfigID       string `json:"configId,omitempty"`
	ConfigSnapshot string `json:"configSnapshot,omitempty"` // opaque JSON captured at creation

	DurationDays int     `json:"durationDays"`
	SpeedFactor  float64 `json:"speedFactor"`

	Status Status `json:"status"`

	CreatedAt     time.Time  `json:"createdAt"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	StoppedAt     *time.Time `json:"stoppedAt,omitempty"`
	InterruptedAt *time.Time `json:"interruptedAt,omitempty"`

	// Checkpoint fields, advanced by the Worker's persistence sidecar.
	SimulatedTimestamp *int64     `json:"simulatedTimestamp,omitempty"`
	CurrentTick        int64      `json:"currentTick"`
	LastSnapshotAt     *time.Time `json:"lastSnapshotAt,omitempty"`

	StopReason string `json:"stopReason,omitempty"`
}

// IsRecoverable reports whether the session may be the target of a recover
// operation: it must be interrupted and carry a checkpointed simulated clock.
func (s *Session) IsRecoverable() bool {
	return s.Status == StatusInterrupted && s.SimulatedTimestamp != nil
}

// ExpiresAtFromStart computes the immutable expiry for a session starting now.
func ExpiresAtFromStart(startedAt time.Time, durationDays int) time.Time {
	return startedAt.Add(time.Duration(durationDays) * 24 * time.Hour)
}

// CarEvent is one append-only per-unit event row.
type CarEvent struct {
	ID        int64        `json:"id"`
	SessionID string       `json:"sessionId"`
	CarID     string       `json:"carId"`
	EventType CarEventType `json:"eventType"`
	Location  string       `json:"location,omitempty"`
	Payload   string       `json:"payload,omitempty"` // opaque JSON
	Timestamp time.Time    `json:"timestamp"`
}

// StopEvent is a downtime record; end_time/status/duration_ms are updated in
// place when the stop completes, otherwise rows are append-only.
type StopEvent struct {
	ID         int64           `json:"id"`
	SessionID  string          `json:"sessionId"`
	StopID     string          `json:"stopId"`
	Location   string          `json:"location,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	Type       string          `json:"type,omitempty"`
	Category   string          `json:"category,omitempty"`
	Severity   string          `json:"severity,omitempty"`
	StartTime  time.Time       `json:"startTime"`
	EndTime    *time.Time      `json:"endTime,omitempty"`
	DurationMS *int64          `json:"durationMs,omitempty"`
	Status     StopEventStatus `json:"status"`
}

// BufferState is a point-in-time snapshot of one buffer's occupancy.
type BufferState struct {
	ID            int64     `json:"id"`
	SessionID     string    `json:"sessionId"`
	BufferID      string    `json:"bufferId"`
	Capacity      int       `json:"capacity"`
	CurrentCount  int       `json:"currentCount"`
	CarIDs        []string  `json:"carIds"` // serialized as JSON in storage
	Status        string    `json:"status,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// PlantSnapshot is a periodic full-world checkpoint, opaque to the orchestrator.
type PlantSnapshot struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"sessionId"`
	Timestamp    time.Time `json:"timestamp"`
	Totals       string    `json:"totals,omitempty"` // opaque JSON
	SnapshotData string    `json:"snapshotData"`     // opaque JSON blob
}

// OEERecord is a periodic overall-equipment-effectiveness aggregate.
type OEERecord struct {
	ID           int64   `json:"id"`
	SessionID    string  `json:"sessionId"`
	Date         string  `json:"date"`
	Location     string  `json:"location,omitempty"`
	Availability float64 `json:"availability"`
	Performance  float64 `json:"performance"`
	Quality      float64 `json:"quality"`
	OEE          float64 `json:"oee"`
}

// MTTRMTBFRecord is a periodic mean-time-to-repair / mean-time-between-failure aggregate.
type MTTRMTBFRecord struct {
	ID        int64   `json:"id"`
	SessionID string  `json:"sessionId"`
	Date      string  `json:"date"`
	Location  string  `json:"location,omitempty"`
	MTTR      float64 `json:"mttr"`
	MTBF      float64 `json:"mtbf"`
}

// RecoveryPayload is the reconstructed world state handed to a fresh Worker
// on RECOVER: clock cursor + plant snapshot + buffer states + completed-unit
// set + in-progress stops. Missing sub-components are nil/empty, never errors.
type RecoveryPayload struct {
	SimulatedTimestamp int64           `json:"simulatedTimestamp"`
	CurrentTick        int64           `json:"currentTick"`
	PlantSnapshot      *PlantSnapshot  `json:"plantSnapshot,omitempty"`
	BufferStates       []BufferState   `json:"bufferStates"`
	CompletedCarIDs    []string        `json:"completedCarIds"`
	ActiveStops        []StopEvent     `json:"activeStops"`
}

// ReconciliationSummary is the result of one RecoveryService startup pass.
type ReconciliationSummary struct {
	InterruptedCount    int      `json:"interruptedCount"`
	ExpiredCount        int      `json:"expiredCount"`
	StaleCount          int      `json:"staleCount"`
	InterruptedSessions []string `json:"interruptedSessions"`
	RanAt               time.Time `json:"ranAt"`
}
