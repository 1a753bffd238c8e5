// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sessionapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	ctrlmw "github.com/ManuGH/factorysim/internal/control/middleware"
	"github.com/ManuGH/factorysim/internal/domain/session/manager"
	"github.com/ManuGH/factorysim/internal/domain/session/recovery"
)

// RouterConfig selects which of the canonical ingress middlewares apply to
// this surface (§10.1, §11's httprate wiring).
type RouterConfig struct {
	AllowedOrigins     []string
	RateLimitEnabled   bool
	RateLimitGlobalRPS int
	RateLimitBurst     int
	RateLimitWhitelist []string
}

// NewRouter builds the session control surface's chi router: the canonical
// ingress stack (recover, request id, CORS, CSRF, security headers, metrics,
// logging, rate limit) followed by the §6 operation table.
func NewRouter(mgr *manager.Manager, recSvc *recovery.Service, cfg RouterConfig) http.Handler {
	s := NewServer(mgr, recSvc)

	r := ctrlmw.NewRouter(ctrlmw.StackConfig{
		EnableCORS:            len(cfg.AllowedOrigins) > 0,
		AllowedOrigins:        cfg.AllowedOrigins,
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		EnableLogging:         true,
		EnableRateLimit:       true,
		RateLimitEnabled:      cfg.RateLimitEnabled,
		RateLimitGlobalRPS:    cfg.RateLimitGlobalRPS,
		RateLimitBurst:        cfg.RateLimitBurst,
		RateLimitWhitelist:    cfg.RateLimitWhitelist,
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Use(requireOwner)
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Use(bindSessionID)
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Post("/start", s.handleStart)
			r.Post("/pause", s.handlePause)
			r.Post("/resume", s.handleResume)
			r.Post("/stop", s.handleStop)
			r.Post("/recover", s.handleRecover)
			r.Post("/discard", s.handleDiscard)
		})
	})

	r.Get("/recovery-summary", s.handleRecoverySummary)

	return r
}
