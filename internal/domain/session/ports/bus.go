// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import "context"

// Bus is the process-wide event fan-out the Supervisor publishes worker
// envelopes to, and external subscribers (HTTP streaming endpoints, audit
// logging) read from.
type Bus interface {
	Publish(ctx context.Context, topic string, event interface{}) error
	Subscribe(ctx context.Context, topic string) (Subscription, error)
}

// Subscription is a single subscriber's view of a Bus topic.
type Subscription interface {
	C() <-chan interface{}
	Close() error
}
