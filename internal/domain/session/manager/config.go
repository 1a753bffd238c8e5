// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import "time"

// Config bounds admission and timing for the SessionManager (SPEC_FULL.md §6).
type Config struct {
	MaxSessionsPerUser int // default 5
	MaxSessionsGlobal  int // default 200

	DefaultDurationDays int     // default 7
	DefaultSpeedFactor  float64 // default 60

	WorkerInitTimeout time.Duration // bound on Spawn -> INIT_COMPLETE, default 10s
	IdempotencyTTL    time.Duration // Idempotency-Key retention window, default 24h
}

func DefaultConfig() Config {
	return Config{
		MaxSessionsPerUser:  5,
		MaxSessionsGlobal:   200,
		DefaultDurationDays: 7,
		DefaultSpeedFactor:  60,
		WorkerInitTimeout:   10 * time.Second,
		IdempotencyTTL:      24 * time.Hour,
	}
}
