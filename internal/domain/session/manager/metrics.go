// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ManuGH/factorysim/internal/domain/session/model"
)

var (
	sessionStartsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factorysim_session_starts_total",
			Help: "Total session start outcomes by result and reason.",
		},
		[]string{"result", "reason"},
	)

	capacityRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factorysim_capacity_rejections_total",
			Help: "Total session creations rejected by admission control.",
		},
		[]string{"scope"},
	)

	fsmTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factorysim_fsm_transitions_total",
			Help: "Session lifecycle transitions by from/to state.",
		},
		[]string{"state_from", "state_to"},
	)

	sessionsActiveGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "factorysim_sessions_active",
			Help: "Current count of sessions in an active (running or paused) state.",
		},
	)

	sweeperSweptTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factorysim_sweeper_swept_total",
			Help: "Total sessions transitioned by the expiration sweeper, by outcome.",
		},
		[]string{"outcome"},
	)
)

func recordTransition(from, to model.Status) {
	fsmTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
}

func recordStartOutcome(result string, reason model.ReasonCode) {
	sessionStartsTotal.WithLabelValues(result, string(reason)).Inc()
}
