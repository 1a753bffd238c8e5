// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package orchconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	xglog "github.com/ManuGH/factorysim/internal/log"
)

// Holder holds the orchestrator config with atomic hot-reload of the
// admission caps (§12 supplement: caps may change without a restart; every
// other field is fixed at process start).
type Holder struct {
	path    string
	current atomic.Pointer[Config]
	watcher *fsnotify.Watcher
}

func NewHolder(initial Config, path string) *Holder {
	h := &Holder{path: path}
	h.current.Store(&initial)
	return h
}

func (h *Holder) Get() Config {
	return *h.current.Load()
}

// StartWatcher watches the config file's directory and reloads only the
// admission-cap fields on change, leaving everything else (store backend,
// listen address) fixed for the life of the process.
func (h *Holder) StartWatcher(ctx context.Context) error {
	if h.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("orchconfig: create watcher: %w", err)
	}
	h.watcher = watcher
	dir := filepath.Dir(h.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("orchconfig: watch dir: %w", err)
	}
	go h.watchLoop(ctx, filepath.Base(h.path))
	return nil
}

func (h *Holder) watchLoop(ctx context.Context, fileName string) {
	logger := xglog.WithComponent("orchconfig")
	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			_ = h.watcher.Close()
			return
		case ev, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != fileName {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(300*time.Millisecond, func() {
				h.reload(logger)
			})
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			logger.Error().Err(err).Msg("config watcher error")
		}
	}
}

func (h *Holder) reload(logger zerolog.Logger) {
	b, err := os.ReadFile(h.path)
	if err != nil {
		logger.Warn().Err(err).Str("path", h.path).Msg("config reload: read failed, keeping current caps")
		return
	}
	next := h.Get()
	if err := yaml.Unmarshal(b, &next); err != nil {
		logger.Warn().Err(err).Str("path", h.path).Msg("config reload: parse failed, keeping current caps")
		return
	}
	applyEnvOverrides(&next)
	prev := h.Get()
	updated := prev
	updated.MaxSessionsPerUser = next.MaxSessionsPerUser
	updated.MaxSessionsGlobal = next.MaxSessionsGlobal
	h.current.Store(&updated)
	logger.Info().
		Int("max_sessions_per_user", next.MaxSessionsPerUser).
		Int("max_sessions_global", next.MaxSessionsGlobal).
		Msg("config reloaded")
	if prev.MaxSessionsPerUser != next.MaxSessionsPerUser || prev.MaxSessionsGlobal != next.MaxSessionsGlobal {
		logger.Info().
			Int("old_per_user", prev.MaxSessionsPerUser).
			Int("new_per_user", next.MaxSessionsPerUser).
			Int("old_global", prev.MaxSessionsGlobal).
			Int("new_global", next.MaxSessionsGlobal).
			Msg("admission caps changed")
	}
}
