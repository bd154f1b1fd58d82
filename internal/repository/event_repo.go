package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"practicecoach/internal/model"
)

// EventRepo persists analytics events
type EventRepo interface {
	Insert(ctx context.Context, event *model.Event) error
}

type eventRepo struct {
	collection *mongo.Collection
}

func NewEventRepo(db *mongo.Database) EventRepo {
	return &eventRepo{
		collection: db.Collection(EventsCollection),
	}
}

func (r *eventRepo) Insert(ctx context.Context, event *model.Event) error {
	_, err := r.collection.InsertOne(ctx, event)
	return err
}
