package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection names
const (
	SessionsCollection     = "sessions"
	QuestionsCollection    = "questions"
	QuestionBankCollection = "question_bank"
	AnswersCollection      = "answers"
	ReportsCollection      = "reports"
	CostRecordsCollection  = "cost_records"
	CapabilityCollection   = "capability_flags"
	CapabilityAuditColl    = "capability_audit"
	EventsCollection       = "analytics_events"
)

// ErrDuplicate is returned when a write violates a unique index.
var ErrDuplicate = errors.New("duplicate key")

type indexSpec struct {
	collection string
	keys       bson.D
	unique     bool
}

var indexes = []indexSpec{
	{collection: SessionsCollection, keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "startedAt", Value: -1}}},
	{collection: QuestionsCollection, keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "order", Value: 1}}, unique: true},
	{collection: AnswersCollection, keys: bson.D{{Key: "questionId", Value: 1}}, unique: true},
	{collection: AnswersCollection, keys: bson.D{{Key: "sessionId", Value: 1}}},
	{collection: ReportsCollection, keys: bson.D{{Key: "sessionId", Value: 1}}, unique: true},
	{collection: CostRecordsCollection, keys: bson.D{{Key: "periodStart", Value: 1}}},
	{collection: CapabilityAuditColl, keys: bson.D{{Key: "key", Value: 1}, {Key: "createdAt", Value: -1}}},
	{collection: EventsCollection, keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "createdAt", Value: 1}}},
}

// EnsureIndexes creates every index the repositories rely on. Unique indexes
// carry invariants, so failing to create one is an error; other failures are
// only logged.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	for _, idx := range indexes {
		if err := createIndex(ctx, db.Collection(idx.collection), idx.keys, idx.unique); err != nil {
			if idx.unique {
				return fmt.Errorf("create unique index on %s: %w", idx.collection, err)
			}
			logger.Warn("failed to create index", zap.String("collection", idx.collection), zap.Error(err))
		}
	}
	logger.Info("indexes ensured", zap.Int("count", len(indexes)))
	return nil
}

func createIndex(ctx context.Context, coll *mongo.Collection, keys bson.D, unique bool) error {
	opts := options.Index().SetUnique(unique)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts})
	return err
}

// duplicate maps unique index violations to ErrDuplicate.
func duplicate(err error) error {
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
