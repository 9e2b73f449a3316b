package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/marketplace/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoOrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{
		collection: db.Collection(ordersCollection),
	}
}

func (m *mongoOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	if _, err := m.collection.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (m *mongoOrderRepository) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return m.findOne(ctx, bson.M{"id": orderID})
}

func (m *mongoOrderRepository) GetOrderForUser(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	return m.findOne(ctx, bson.M{"id": orderID, "user_id": userID})
}

func (m *mongoOrderRepository) findOne(ctx context.Context, filter bson.M) (*domain.Order, error) {
	var order domain.Order
	err := m.collection.FindOne(ctx, filter).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return &order, nil
}

func (m *mongoOrderRepository) ListOrdersByUserID(ctx context.Context, userID string, limit int64) ([]*domain.Order, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := m.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer cursor.Close(ctx)

	orders := make([]*domain.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

func (m *mongoOrderRepository) AttachSession(ctx context.Context, orderID, sessionID string) error {
	update := bson.M{"$set": bson.M{"session_id": sessionID}}
	result, err := m.collection.UpdateOne(ctx, bson.M{"id": orderID}, update)
	if err != nil {
		return fmt.Errorf("attach session to order: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (m *mongoOrderRepository) MarkPaid(ctx context.Context, orderID string, paidAt time.Time) (*domain.Order, error) {
	update := bson.M{
		"$set": bson.M{
			"payment_status": domain.PaymentStatusPaid,
			"status":         domain.OrderStatusConfirmed,
		},
		"$min": bson.M{"paid_at": paidAt},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var before domain.Order
	err := m.collection.FindOneAndUpdate(ctx, bson.M{"id": orderID}, update, opts).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}
	return &before, nil
}

func (m *mongoOrderRepository) ListUnpublishedConfirmations(ctx context.Context, paidBefore time.Time, limit int64) ([]*domain.Order, error) {
	filter := bson.M{
		"payment_status":            domain.PaymentStatusPaid,
		"confirmation_published_at": bson.M{"$exists": false},
		"paid_at":                   bson.M{"$lte": paidBefore},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "paid_at", Value: 1}}).
		SetLimit(limit)

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query unpublished confirmations: %w", err)
	}
	defer cursor.Close(ctx)

	orders := make([]*domain.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

// MarkConfirmationPublished is a no-op for orders already marked.
func (m *mongoOrderRepository) MarkConfirmationPublished(ctx context.Context, orderID string, at time.Time) error {
	filter := bson.M{"id": orderID, "confirmation_published_at": bson.M{"$exists": false}}
	update := bson.M{"$set": bson.M{"confirmation_published_at": at}}
	if _, err := m.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("mark confirmation published: %w", err)
	}
	return nil
}
