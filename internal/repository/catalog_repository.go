package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/fjod/marketplace/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CatalogRepository serves products and categories. Both collections are
// read-only for the request path; only the seeder writes them.
type CatalogRepository struct {
	products   *mongo.Collection
	categories *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{
		products:   db.Collection(productsCollection),
		categories: db.Collection(categoriesCollection),
	}
}

func (r *CatalogRepository) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var product domain.Product
	err := r.products.FindOne(ctx, bson.M{"id": productID}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (r *CatalogRepository) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}

	cursor, err := r.products.Find(ctx, query, options.Find().SetLimit(int64(filter.Limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer cursor.Close(ctx)

	products := make([]*domain.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func (r *CatalogRepository) ListCategories(ctx context.Context, limit int64) ([]*domain.Category, error) {
	cursor, err := r.categories.Find(ctx, bson.M{}, options.Find().SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer cursor.Close(ctx)

	categories := make([]*domain.Category, 0)
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	return categories, nil
}

// ReplaceCatalog drops every category and product and inserts the given ones.
func (r *CatalogRepository) ReplaceCatalog(ctx context.Context, categories []domain.Category, products []domain.Product) error {
	if _, err := r.categories.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}
	if _, err := r.products.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}

	if len(categories) > 0 {
		docs := make([]interface{}, len(categories))
		for i := range categories {
			docs[i] = categories[i]
		}
		if _, err := r.categories.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("failed to insert categories: %w", err)
		}
	}

	if len(products) > 0 {
		docs := make([]interface{}, len(products))
		for i := range products {
			docs[i] = products[i]
		}
		if _, err := r.products.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("failed to insert products: %w", err)
		}
	}
	return nil
}
