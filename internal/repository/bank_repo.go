package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"practicecoach/internal/model"
)

// BankRepo stores the question bank the provisioner draws from
type BankRepo interface {
	List(ctx context.Context) ([]model.BankItem, error)
	Count(ctx context.Context) (int64, error)
	Upsert(ctx context.Context, items []model.BankItem) (int64, error)
}

type bankRepo struct {
	collection *mongo.Collection
}

func NewBankRepo(db *mongo.Database) BankRepo {
	return &bankRepo{
		collection: db.Collection(QuestionBankCollection),
	}
}

func (r *bankRepo) List(ctx context.Context) ([]model.BankItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []model.BankItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *bankRepo) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// Upsert writes items keyed by id and returns how many were inserted or changed.
func (r *bankRepo) Upsert(ctx context.Context, items []model.BankItem) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	writes := make([]mongo.WriteModel, len(items))
	for i, item := range items {
		writes[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": item.ID}).
			SetReplacement(item).
			SetUpsert(true)
	}

	res, err := r.collection.BulkWrite(ctx, writes)
	if err != nil {
		return 0, err
	}
	return res.UpsertedCount + res.ModifiedCount, nil
}
