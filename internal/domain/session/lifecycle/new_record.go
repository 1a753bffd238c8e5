// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"time"

	"github.com/google/uuid"

	"github.com/ManuGH/factorysim/internal/domain/session/model"
)

// NewSession initializes a Session row with canonical defaults. durationDays
// and speedFactor fall back to the spec's default caps when <= 0.
func NewSession(ownerUserID, name, configID, configSnapshot string, durationDays int, speedFactor float64, now time.Time) *model.Session {
	if durationDays <= 0 {
		durationDays = model.DefaultDurationDays
	}
	if speedFactor <= 0 {
		speedFactor = model.DefaultSpeedFactor
	}
	return &model.Session{
		SessionID:      uuid.NewString(),
		OwnerUserID:    ownerUserID,
		Name:           name,
		ConfigID:       configID,
		ConfigSnapshot: configSnapshot,
		DurationDays:   durationDays,
		SpeedFactor:    speedFactor,
		Status:         model.StatusIdle,
		CreatedAt:      now,
	}
}
