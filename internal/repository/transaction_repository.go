package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/marketplace/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoTransactionRepository struct {
	collection *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) TransactionRepository {
	return &mongoTransactionRepository{
		collection: db.Collection(transactionsCollection),
	}
}

func (m *mongoTransactionRepository) CreateTransaction(ctx context.Context, txn *domain.PaymentTransaction) error {
	if _, err := m.collection.InsertOne(ctx, txn); err != nil {
		return fmt.Errorf("insert payment transaction: %w", err)
	}
	return nil
}

func (m *mongoTransactionRepository) GetTransactionForUser(ctx context.Context, sessionID, userID string) (*domain.PaymentTransaction, error) {
	var txn domain.PaymentTransaction
	filter := bson.M{"session_id": sessionID, "user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&txn)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query payment transaction: %w", err)
	}
	return &txn, nil
}

func (m *mongoTransactionRepository) UpdatePaymentStatus(ctx context.Context, sessionID string, status domain.PaymentStatus) error {
	filter := bson.M{
		"session_id":     sessionID,
		"payment_status": bson.M{"$ne": domain.PaymentStatusPaid},
	}
	update := bson.M{"$set": bson.M{"payment_status": status}}
	if _, err := m.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return nil
}

func (m *mongoTransactionRepository) MarkPaid(ctx context.Context, sessionID string) error {
	update := bson.M{"$set": bson.M{"payment_status": domain.PaymentStatusPaid}}
	if _, err := m.collection.UpdateOne(ctx, bson.M{"session_id": sessionID}, update); err != nil {
		return fmt.Errorf("mark transaction paid: %w", err)
	}
	return nil
}
