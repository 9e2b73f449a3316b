package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/marketplace/internal/cache"
	"github.com/fjod/marketplace/internal/domain"
	"github.com/fjod/marketplace/internal/logger"
	"github.com/fjod/marketplace/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type CartService struct {
	repo     repository.CartRepository
	products repository.ProductRepository
	cache    cache.CartCache
	log      logrus.FieldLogger
	sfg      singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, products repository.ProductRepository, cache cache.CartCache, log logrus.FieldLogger) *CartService {
	return &CartService{
		repo:     repo,
		products: products,
		cache:    cache,
		log:      log,
	}
}

// GetCart returns the user's cart, creating an empty one on first access.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	log := logger.FromContext(ctx, s.log)

	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.WithError(err).Warn("cart cache get failed")
		}

		// The version is read before the store so a clear that lands in
		// between invalidates this fill.
		version, errVersion := s.cache.Version(ctx, userID)
		if errVersion != nil {
			log.WithError(errVersion).Warn("cart cache version failed")
		}

		cart, err = s.repo.GetOrCreateCart(ctx, userID)
		if err != nil {
			return nil, err
		}

		if errVersion == nil {
			errSet := s.cache.Set(ctx, userID, version, cart)
			switch {
			case errors.Is(errSet, cache.ErrStaleVersion):
				log.Debug("cart changed during cache fill, skipping")
			case errSet != nil:
				log.WithError(errSet).Warn("cart cache set failed")
			}
		}

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem snapshots the current catalog price, title and thumbnail. Adding a
// product that is already in the cart only increases its quantity.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidInput)
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	if _, err := s.repo.GetOrCreateCart(ctx, userID); err != nil {
		return err
	}

	item := domain.CartItem{
		ProductID: product.ID,
		Quantity:  quantity,
		Price:     product.Price,
		Title:     product.Title,
		Image:     product.Thumbnail(),
	}
	if err := s.repo.AddItem(ctx, userID, item); err != nil {
		logger.FromContext(ctx, s.log).WithError(err).WithField("product_id", productID).Error("add cart item failed")
		return err
	}

	s.invalidateCache(ctx, userID)
	return nil
}

// UpdateItem overwrites the quantity. A quantity of zero or less removes the
// line item.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID string, quantity int) error {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return err
	}
	if _, ok := cart.Item(productID); !ok {
		return domain.ErrItemNotFound
	}

	if quantity <= 0 {
		err = s.repo.RemoveItem(ctx, userID, productID)
	} else {
		err = s.repo.UpdateItemQuantity(ctx, userID, productID, quantity)
	}
	if err != nil {
		return err
	}

	s.invalidateCache(ctx, userID)
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) error {
	if err := s.repo.RemoveItem(ctx, userID, productID); err != nil {
		logger.FromContext(ctx, s.log).WithError(err).WithField("product_id", productID).Error("remove cart item failed")
		return err
	}

	s.invalidateCache(ctx, userID)
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if err := s.repo.ClearCart(ctx, userID); err != nil {
		return err
	}

	s.invalidateCache(ctx, userID)
	return nil
}

func (s *CartService) invalidateCache(ctx context.Context, userID string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(cctx, userID); err != nil {
		logger.FromContext(ctx, s.log).WithError(err).Warn("cart cache invalidate failed")
	}
}
