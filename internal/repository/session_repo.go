package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"practicecoach/internal/model"
)

type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	CountOwnedSince(ctx context.Context, ownerID string, since time.Time) (int64, error)
	UpdateCompletionRate(ctx context.Context, id string, rate float64) error
	MarkCompleted(ctx context.Context, id string, avgScore float64, completedAt time.Time) error
}

type sessionRepo struct {
	collection *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection(SessionsCollection),
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.collection.InsertOne(ctx, session)
	return duplicate(err)
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) CountOwnedSince(ctx context.Context, ownerID string, since time.Time) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"ownerId":   ownerID,
		"startedAt": bson.M{"$gte": since},
	})
}

func (r *sessionRepo) UpdateCompletionRate(ctx context.Context, id string, rate float64) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"completionRate": rate},
	})
	return err
}

func (r *sessionRepo) MarkCompleted(ctx context.Context, id string, avgScore float64, completedAt time.Time) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"avgScore":    avgScore,
			"completedAt": completedAt,
		},
	})
	return err
}
