// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	b := NewMemoryBus()
	sub, err := b.Subscribe(context.Background(), "topic")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	require.NoError(t, b.Publish(context.Background(), "topic", "hello"))

	select {
	case msg := <-sub.C():
		require.Equal(t, "hello", msg)
	default:
		t.Fatal("expected message on subscribed channel")
	}
}

func TestMemoryBus_DropsOnBackpressureWithoutBlocking(t *testing.T) {
	b := NewMemoryBus()
	sub, err := b.Subscribe(context.Background(), "topic")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	for i := 0; i < 1000; i++ {
		require.NoError(t, b.Publish(context.Background(), "topic", i))
	}
}

func TestMemoryBus_CloseStopsDelivery(t *testing.T) {
	b := NewMemoryBus()
	sub, err := b.Subscribe(context.Background(), "topic")
	require.NoError(t, err)
	require.NoError(t, sub.Close())

	_, ok := <-sub.C()
	require.False(t, ok, "channel should be closed after Close")
}
