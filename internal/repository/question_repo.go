package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"practicecoach/internal/model"
)

// QuestionRepo stores the provisioned questions of each session
type QuestionRepo interface {
	ListBySession(ctx context.Context, sessionID string) ([]*model.Question, error)
	GetByID(ctx context.Context, id string) (*model.Question, error)
	// InsertMany stores a whole set at once; a concurrent set for the same
	// session surfaces as ErrDuplicate.
	InsertMany(ctx context.Context, questions []*model.Question) error
}

type questionRepo struct {
	collection *mongo.Collection
}

func NewQuestionRepo(db *mongo.Database) QuestionRepo {
	return &questionRepo{
		collection: db.Collection(QuestionsCollection),
	}
}

func (r *questionRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Question, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var questions []*model.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepo) GetByID(ctx context.Context, id string) (*model.Question, error) {
	var question model.Question
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&question)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepo) InsertMany(ctx context.Context, questions []*model.Question) error {
	if len(questions) == 0 {
		return nil
	}

	docs := make([]interface{}, len(questions))
	for i, q := range questions {
		docs[i] = q
	}

	_, err := r.collection.InsertMany(ctx, docs)
	return duplicate(err)
}
