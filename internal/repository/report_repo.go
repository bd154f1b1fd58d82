package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"practicecoach/internal/model"
)

// ReportRepo handles MongoDB operations for coaching reports
type ReportRepo interface {
	// Create stores the report unless its session already has one, in which
	// case it fails with ErrDuplicate and the stored report is left untouched.
	Create(ctx context.Context, report *model.Report) error
	GetBySession(ctx context.Context, sessionID string) (*model.Report, error)
}

type reportRepo struct {
	collection *mongo.Collection
}

// NewReportRepo creates a new report repository
func NewReportRepo(db *mongo.Database) ReportRepo {
	return &reportRepo{
		collection: db.Collection(ReportsCollection),
	}
}

func (r *reportRepo) Create(ctx context.Context, report *model.Report) error {
	opts := options.Update().SetUpsert(true)
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"sessionId": report.SessionID},
		bson.M{"$setOnInsert": report},
		opts,
	)
	if err != nil {
		return duplicate(err)
	}
	if res.UpsertedCount == 0 {
		return fmt.Errorf("%w: report for session %s", ErrDuplicate, report.SessionID)
	}
	return nil
}

func (r *reportRepo) GetBySession(ctx context.Context, sessionID string) (*model.Report, error) {
	var report model.Report
	err := r.collection.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&report)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}
