package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func uniqueIndex(field string) mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true),
	}
}

// CreateIndexes creates the lookup indexes on application-assigned ids and
// the uniqueness constraints the services rely on.
func (s *Store) CreateIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection:      {uniqueIndex("id"), uniqueIndex("email")},
		categoriesCollection: {uniqueIndex("id")},
		productsCollection: {
			uniqueIndex("id"),
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
		cartsCollection: {uniqueIndex("id"), uniqueIndex("user_id")},
		ordersCollection: {
			uniqueIndex("id"),
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "payment_status", Value: 1}, {Key: "paid_at", Value: 1}}},
		},
		transactionsCollection: {
			uniqueIndex("id"),
			uniqueIndex("session_id"),
			{Keys: bson.D{{Key: "order_id", Value: 1}}},
		},
	}

	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}
