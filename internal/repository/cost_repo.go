package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"practicecoach/internal/model"
)

// CostRepo is the append-only ledger of paid external calls
type CostRepo interface {
	Insert(ctx context.Context, record *model.CostRecord) error
	// SumPeriodStartingIn totals estimated cost of records whose period
	// starts in [from, to).
	SumPeriodStartingIn(ctx context.Context, from, to time.Time) (float64, error)
}

// CapabilityRepo stores capability flags and their audit trail
type CapabilityRepo interface {
	GetFlag(ctx context.Context, key string) (*model.CapabilityFlag, error)
	SetFlag(ctx context.Context, flag *model.CapabilityFlag) error
	InsertAudit(ctx context.Context, audit *model.CapabilityAudit) error
}

type costRepo struct {
	records *mongo.Collection
}

func NewCostRepo(db *mongo.Database) CostRepo {
	return &costRepo{
		records: db.Collection(CostRecordsCollection),
	}
}

func (r *costRepo) Insert(ctx context.Context, record *model.CostRecord) error {
	_, err := r.records.InsertOne(ctx, record)
	return err
}

func (r *costRepo) SumPeriodStartingIn(ctx context.Context, from, to time.Time) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "periodStart", Value: bson.D{
			{Key: "$gte", Value: from},
			{Key: "$lt", Value: to},
		}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$estimatedCost"}}},
		}}},
	}

	cursor, err := r.records.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var out []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &out); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].Total, nil
}

type capabilityRepo struct {
	flags *mongo.Collection
	audit *mongo.Collection
}

func NewCapabilityRepo(db *mongo.Database) CapabilityRepo {
	return &capabilityRepo{
		flags: db.Collection(CapabilityCollection),
		audit: db.Collection(CapabilityAuditColl),
	}
}

func (r *capabilityRepo) GetFlag(ctx context.Context, key string) (*model.CapabilityFlag, error) {
	var flag model.CapabilityFlag
	err := r.flags.FindOne(ctx, bson.M{"_id": key}).Decode(&flag)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &flag, nil
}

func (r *capabilityRepo) SetFlag(ctx context.Context, flag *model.CapabilityFlag) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.flags.ReplaceOne(ctx, bson.M{"_id": flag.Key}, flag, opts)
	return err
}

func (r *capabilityRepo) InsertAudit(ctx context.Context, audit *model.CapabilityAudit) error {
	_, err := r.audit.InsertOne(ctx, audit)
	return err
}
