package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"practicecoach/internal/model"
)

type AnswerRepo interface {
	// Create fails with ErrDuplicate when the question already has an answer.
	Create(ctx context.Context, answer *model.Answer) error
	GetByQuestionID(ctx context.Context, questionID string) (*model.Answer, error)
	ListBySession(ctx context.Context, sessionID string) ([]*model.Answer, error)
	CountBySession(ctx context.Context, sessionID string) (int64, error)
	SaveCoaching(ctx context.Context, id string, scores model.STARScores, tags model.AnswerTags, needsFollowUp bool, scoredAt time.Time) error
}

type answerRepo struct {
	collection *mongo.Collection
}

func NewAnswerRepo(db *mongo.Database) AnswerRepo {
	return &answerRepo{
		collection: db.Collection(AnswersCollection),
	}
}

func (r *answerRepo) Create(ctx context.Context, answer *model.Answer) error {
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, answer)
	return duplicate(err)
}

func (r *answerRepo) GetByQuestionID(ctx context.Context, questionID string) (*model.Answer, error) {
	var answer model.Answer
	err := r.collection.FindOne(ctx, bson.M{"questionId": questionID}).Decode(&answer)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *answerRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Answer, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var answers []*model.Answer
	if err = cursor.All(ctx, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *answerRepo) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"sessionId": sessionID})
}

func (r *answerRepo) SaveCoaching(ctx context.Context, id string, scores model.STARScores, tags model.AnswerTags, needsFollowUp bool, scoredAt time.Time) error {
	update := bson.M{"$set": bson.M{
		"scores":        scores,
		"tags":          tags,
		"needsFollowUp": needsFollowUp,
		"scoredAt":      scoredAt,
	}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}
