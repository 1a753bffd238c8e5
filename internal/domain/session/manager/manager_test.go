// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/factorysim/internal/domain/session/lifecycle"
	"github.com/ManuGH/factorysim/internal/domain/session/model"
	"github.com/ManuGH/factorysim/internal/domain/session/ports"
	"github.com/ManuGH/factorysim/internal/domain/session/store"
	"github.com/ManuGH/factorysim/internal/domain/session/supervisor"
	"github.com/ManuGH/factorysim/internal/domain/session/worker"
)

// fakeEngine is the minimal ports.Engine double used across manager tests.
type fakeEngine struct {
	events chan ports.DomainEvent
}

func newFakeEngine(string) ports.Engine {
	return &fakeEngine{events: make(chan ports.DomainEvent)}
}

func (f *fakeEngine) Init(ctx context.Context, cfg string) error { return nil }
func (f *fakeEngine) Start(ctx context.Context) error            { return nil }
func (f *fakeEngine) Pause(ctx context.Context) error            { return nil }
func (f *fakeEngine) Resume(ctx context.Context) error           { return nil }
func (f *fakeEngine) Stop(ctx context.Context) error {
	close(f.events)
	return nil
}
func (f *fakeEngine) Events() <-chan ports.DomainEvent    { return f.events }
func (f *fakeEngine) Clock() (int64, int64)               { return 0, 0 }

// localBus is a minimal in-process ports.Bus fan-out for tests.
type localBus struct {
	mu   sync.Mutex
	subs map[string][]chan interface{}
}

func newLocalBus() *localBus { return &localBus{subs: make(map[string][]chan interface{})} }

func (b *localBus) Publish(ctx context.Context, topic string, event interface{}) error {
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

type localSub struct {
	ch chan interface{}
}

func (s *localSub) C() <-chan interface{} { return s.ch }
func (s *localSub) Close() error          { return nil }

func (b *localBus) Subscribe(ctx context.Context, topic string) (ports.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan interface{}, 16)
	b.subs[topic] = append(b.subs[topic], ch)
	return &localSub{ch: ch}, nil
}

func newTestManager(t *testing.T) (*Manager, store.StateStore, *supervisor.WorkerPool) {
	t.Helper()
	st := store.NewMemoryStore()
	bus := newLocalBus()
	pool := supervisor.NewWorkerPool(supervisor.DefaultConfig(), bus)
	pool.Run(context.Background())
	t.Cleanup(pool.Stop)

	w := worker.New(worker.DefaultConfig(), st, newFakeEngine)
	cfg := DefaultConfig()
	cfg.WorkerInitTimeout = 2 * time.Second
	m := New(cfg, st, pool, w, bus)
	return m, st, pool
}

func TestManager_CreateStartStop(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	sess, err := m.Create(ctx, CreateRequest{OwnerUserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, model.StatusIdle, sess.Status)

	started, err := m.Start(ctx, sess.SessionID, "u1")
	require.NoError(t, err)
	require.Equal(t, model.StatusRunning, started.Status)
	require.NotNil(t, started.ExpiresAt)

	stopped, err := m.Stop(ctx, sess.SessionID, "u1", "test")
	require.NoError(t, err)
	require.Equal(t, model.StatusStopped, stopped.Status)
}

func TestManager_CreateIdempotent(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	req := CreateRequest{OwnerUserID: "u1", IdempotencyKey: "key-1"}
	first, err := m.Create(ctx, req)
	require.NoError(t, err)

	second, err := m.Create(ctx, req)
	require.NoError(t, err)
	require.Equal(t, first.SessionID, second.SessionID)
}

func TestManager_AdmissionCapPerUser(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)
	m.cfg.MaxSessionsPerUser = 1

	first, err := m.Create(ctx, CreateRequest{OwnerUserID: "u1"})
	require.NoError(t, err)
	_, err = m.Start(ctx, first.SessionID, "u1")
	require.NoError(t, err)

	_, err = m.Create(ctx, CreateRequest{OwnerUserID: "u1"})
	require.Error(t, err)
	require.Equal(t, model.RCapExceededUser, lifecycle.ReasonOf(err))
}

func TestManager_AdmissionCapPerUserEnforcedOnStart(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)
	m.cfg.MaxSessionsPerUser = 1

	a, err := m.Create(ctx, CreateRequest{OwnerUserID: "u1"})
	require.NoError(t, err)
	b, err := m.Create(ctx, CreateRequest{OwnerUserID: "u1"})
	require.NoError(t, err)

	_, err = m.Start(ctx, a.SessionID, "u1")
	require.NoError(t, err)

	_, err = m.Start(ctx, b.SessionID, "u1")
	require.Error(t, err)
	require.Equal(t, model.RCapExceededUser, lifecycle.ReasonOf(err))
}

func TestManager_UnknownSessionIsIndistinguishable(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	_, err := m.Start(ctx, "does-not-exist", "u1")
	require.ErrorIs(t, err, ErrUnknownSession)

	sess, err := m.Create(ctx, CreateRequest{OwnerUserID: "u1"})
	require.NoError(t, err)
	_, err = m.Start(ctx, sess.SessionID, "someone-else")
	require.ErrorIs(t, err, ErrUnknownSession)
}

func TestSweeper_ExpiresOverdueSession(t *testing.T) {
	ctx := context.Background()
	m, st, _ := newTestManager(t)

	sess, err := m.Create(ctx, CreateRequest{OwnerUserID: "u1"})
	require.NoError(t, err)
	_, err = m.Start(ctx, sess.SessionID, "u1")
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	_, err = st.UpdateSession(ctx, sess.SessionID, func(r *model.Session) error {
		r.ExpiresAt = &past
		return nil
	})
	require.NoError(t, err)

	sweeper := &Sweeper{Manager: m, Conf: SweeperConfig{Interval: time.Second}}
	sweeper.SweepOnce(ctx)

	got, err := st.GetSession(ctx, sess.SessionID)
	require.NoError(t, err)
	require.Equal(t, model.StatusExpired, got.Status)
}
