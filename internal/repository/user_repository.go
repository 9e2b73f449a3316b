package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/marketplace/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoUserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(usersCollection),
	}
}

func (m *mongoUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := m.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (m *mongoUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return m.findOne(ctx, bson.M{"id": userID})
}

func (m *mongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.findOne(ctx, bson.M{"email": email})
}

func (m *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	err := m.collection.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

func (m *mongoUserRepository) UpdateProfile(ctx context.Context, userID string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	result, err := m.collection.UpdateOne(ctx, bson.M{"id": userID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
