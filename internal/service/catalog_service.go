package service

import (
	"context"

	"github.com/fjod/marketplace/internal/domain"
	"github.com/fjod/marketplace/internal/repository"
)

const (
	defaultProductLimit = 50
	maxProductLimit     = 100
	categoryLimit       = 100
)

type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
}

func NewCatalogService(products repository.ProductRepository, categories repository.CategoryRepository) *CatalogService {
	return &CatalogService{products: products, categories: categories}
}

func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultProductLimit
	case filter.Limit > maxProductLimit:
		filter.Limit = maxProductLimit
	}
	return s.products.ListProducts(ctx, filter)
}

func (s *CatalogService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	return s.products.GetProduct(ctx, productID)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.ListCategories(ctx, categoryLimit)
}
