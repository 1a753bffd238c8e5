// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sessionapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/factorysim/internal/domain/session/manager"
	"github.com/ManuGH/factorysim/internal/domain/session/ports"
	"github.com/ManuGH/factorysim/internal/domain/session/recovery"
	"github.com/ManuGH/factorysim/internal/domain/session/store"
	"github.com/ManuGH/factorysim/internal/domain/session/supervisor"
	"github.com/ManuGH/factorysim/internal/domain/session/worker"
)

type stubEngine struct{ events chan ports.DomainEvent }

func newStubEngine(string) ports.Engine { return &stubEngine{events: make(chan ports.DomainEvent)} }

func (e *stubEngine) Init(ctx context.Context, cfg string) error { return nil }
func (e *stubEngine) Start(ctx context.Context) error            { return nil }
func (e *stubEngine) Pause(ctx context.Context) error            { return nil }
func (e *stubEngine) Resume(ctx context.Context) error           { return nil }
func (e *stubEngine) Stop(ctx context.Context) error {
	close(e.events)
	return nil
}
func (e *stubEngine) Events() <-chan ports.DomainEvent { return e.events }
func (e *stubEngine) Clock() (int64, int64)            { return 0, 0 }

type stubBus struct {
	mu   sync.Mutex
	subs map[string][]chan interface{}
}

func newStubBus() *stubBus { return &stubBus{subs: make(map[string][]chan interface{})} }

func (b *stubBus) Publish(ctx context.Context, topic string, event interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[topic] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

type stubSub struct{ ch chan interface{} }

func (s *stubSub) C() <-chan interface{} { return s.ch }
func (s *stubSub) Close() error          { return nil }

func (b *stubBus) Subscribe(ctx context.Context, topic string) (ports.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan interface{}, 16)
	b.subs[topic] = append(b.subs[topic], ch)
	return &stubSub{ch: ch}, nil
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	st := store.NewMemoryStore()
	bus := newStubBus()
	pool := supervisor.NewWorkerPool(supervisor.DefaultConfig(), bus)
	pool.Run(context.Background())
	t.Cleanup(pool.Stop)

	w := worker.New(worker.DefaultConfig(), st, newStubEngine)
	cfg := manager.DefaultConfig()
	cfg.WorkerInitTimeout = 2 * time.Second
	mgr := manager.New(cfg, st, pool, w, bus)
	recSvc := recovery.New(st, 24*time.Hour)

	return NewRouter(mgr, recSvc, RouterConfig{RateLimitEnabled: false})
}

func doJSON(t *testing.T, h http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://example.com")
	if userID != "" {
		req.Header.Set(headerUserID, userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSessionAPI_CreateGetList(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/sessions/", "u1", createRequest{Name: "line-1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.SessionID)

	rec = doJSON(t, h, http.MethodGet, "/sessions/"+created.SessionID+"/", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/sessions/", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
}

func TestSessionAPI_MissingUserIDRejected(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/sessions/", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionAPI_UnknownSessionIsNotFound(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/sessions/does-not-exist/", "u1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionAPI_StartThenStop(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/sessions/", "u1", createRequest{Name: "line-2"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, h, http.MethodPost, "/sessions/"+created.SessionID+"/start", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/sessions/"+created.SessionID+"/stop", "u1", stopRequest{Reason: "test"})
	require.Equal(t, http.StatusOK, rec.Code)
}
