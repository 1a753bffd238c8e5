// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package supervisor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/factorysim/internal/domain/session/model"
	"github.com/ManuGH/factorysim/internal/domain/session/ports"
)

type capturingBus struct {
	mu     sync.Mutex
	events []Event
}

func (b *capturingBus) Publish(ctx context.Context, topic string, event interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ev, ok := event.(Event); ok {
		b.events = append(b.events, ev)
	}
	return nil
}

func (b *capturingBus) Subscribe(ctx context.Context, topic string) (ports.Subscription, error) {
	return nil, errors.New("not implemented")
}

func (b *capturingBus) snapshot() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

func (b *capturingBus) countCrashed() int {
	n := 0
	for _, ev := range b.snapshot() {
		if ev.Type == model.EventWorkerCrashed {
			n++
		}
	}
	return n
}

func TestWorkerPool_GracefulStopEmitsNoCrash(t *testing.T) {
	pool := NewWorkerPool(DefaultConfig(), nil)
	pool.Run(context.Background())
	defer pool.Stop()

	fn := func(ctx context.Context, sessionID string, cmds <-chan Command, out chan<- Event) error {
		out <- Event{Type: model.EventInitComplete, WallTimestamp: time.Now()}
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case cmd, ok := <-cmds:
				if !ok {
					return nil
				}
				if cmd.Type == model.CmdStop {
					return nil
				}
			}
		}
	}

	require.NoError(t, pool.Spawn("s1", fn))
	require.NoError(t, pool.WaitForInit(context.Background(), "s1", time.Second))
	require.NoError(t, pool.Terminate(context.Background(), "s1"))
}

func TestWorkerPool_UngracefulExitIsCrash(t *testing.T) {
	bus := &capturingBus{}
	pool := NewWorkerPool(DefaultConfig(), bus)
	pool.Run(context.Background())
	defer pool.Stop()

	fn := func(ctx context.Context, sessionID string, cmds <-chan Command, out chan<- Event) error {
		out <- Event{Type: model.EventInitComplete, WallTimestamp: time.Now()}
		return errors.New("simulated panic recovery")
	}

	require.NoError(t, pool.Spawn("s2", fn))
	require.NoError(t, pool.WaitForInit(context.Background(), "s2", time.Second))

	require.Eventually(t, func() bool {
		return bus.countCrashed() == 1
	}, time.Second, 10*time.Millisecond)
}
