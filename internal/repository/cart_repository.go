package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/marketplace/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const maxAddItemAttempts = 3

type mongoCartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{
		collection: db.Collection(cartsCollection),
	}
}

func (m *mongoCartRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&cart)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

func (m *mongoCartRepository) GetOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := m.upsertEmptyCart(ctx, userID)
	// Two concurrent upserts for a new user: one insert wins the unique
	// user_id index, the loser finds the winner's document on retry.
	if mongo.IsDuplicateKeyError(err) {
		cart, err = m.upsertEmptyCart(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get or create cart: %w", err)
	}
	return cart, nil
}

func (m *mongoCartRepository) upsertEmptyCart(ctx context.Context, userID string) (*domain.Cart, error) {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"id":         uuid.NewString(),
			"items":      bson.A{},
			"updated_at": time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var cart domain.Cart
	if err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem accumulates quantity onto an existing line item, or appends a new
// one. Both branches are single atomic writes; the $ne guard on the push keeps
// at most one line item per product when two adds race.
func (m *mongoCartRepository) AddItem(ctx context.Context, userID string, item domain.CartItem) error {
	for attempt := 0; attempt < maxAddItemAttempts; attempt++ {
		now := time.Now().UTC()

		incFilter := bson.M{"user_id": userID, "items.product_id": item.ProductID}
		inc := bson.M{
			"$inc": bson.M{"items.$.quantity": item.Quantity},
			"$set": bson.M{"updated_at": now},
		}
		result, err := m.collection.UpdateOne(ctx, incFilter, inc)
		if err != nil {
			return fmt.Errorf("failed to update existing item: %w", err)
		}
		if result.MatchedCount > 0 {
			return nil
		}

		pushFilter := bson.M{"user_id": userID, "items.product_id": bson.M{"$ne": item.ProductID}}
		push := bson.M{
			"$push": bson.M{"items": item},
			"$set":  bson.M{"updated_at": now},
		}
		result, err = m.collection.UpdateOne(ctx, pushFilter, push)
		if err != nil {
			return fmt.Errorf("failed to add new item: %w", err)
		}
		if result.MatchedCount > 0 {
			return nil
		}

		count, err := m.collection.CountDocuments(ctx, bson.M{"user_id": userID})
		if err != nil {
			return fmt.Errorf("failed to check existing cart: %w", err)
		}
		if count == 0 {
			return domain.ErrCartNotFound
		}
	}

	return fmt.Errorf("failed to add item to cart of user %s: concurrent modification", userID)
}

func (m *mongoCartRepository) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) error {
	filter := bson.M{
		"user_id":          userID,
		"items.product_id": productID,
	}

	update := bson.M{
		"$set": bson.M{
			"items.$[elem].quantity": quantity,
			"updated_at":             time.Now().UTC(),
		},
	}

	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.product_id": productID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to update item quantity: %w", err)
	}

	if result.MatchedCount == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// RemoveItem is a no-op when the cart or the item does not exist.
func (m *mongoCartRepository) RemoveItem(ctx context.Context, userID, productID string) error {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"product_id": productID},
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	if _, err := m.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}
	return nil
}

// ClearCart empties the item list. The cart document itself is kept.
func (m *mongoCartRepository) ClearCart(ctx context.Context, userID string) error {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"items":      bson.A{},
			"updated_at": time.Now().UTC(),
		},
	}

	if _, err := m.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
