package events

import (
	"context"

	"practicecoach/internal/model"
)

// Store persists events. repository.EventRepo satisfies it.
type Store interface {
	Insert(ctx context.Context, event *model.Event) error
}

type storeSink struct {
	store Store
}

// NewStoreSink writes every event to store.
func NewStoreSink(store Store) Sink {
	return &storeSink{store: store}
}

func (s *storeSink) Name() string { return "store" }

func (s *storeSink) Deliver(ctx context.Context, event *model.Event) error {
	return s.store.Insert(ctx, event)
}
