// Package events publishes chain lifecycle events to subscribers.
package events

import (
	"context"
	"errors"
	"sync"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/storage"
)

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, storage.ChainEvent) error { return nil }
func (Nop) Close() error                                      { return nil }

// Recorder keeps published events in memory. Useful for tests and for
// inspecting a chain's history in a single process.
type Recorder struct {
	mu     sync.Mutex
	events []storage.ChainEvent
}

func (r *Recorder) Publish(_ context.Context, ev storage.ChainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []storage.ChainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]storage.ChainEvent(nil), r.events...)
}

// Fanout publishes to several publishers and joins their errors.
type Fanout []storage.EventPublisher

func (f Fanout) Publish(ctx context.Context, ev storage.ChainEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
