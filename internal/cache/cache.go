package cache

import (
	"context"
	"errors"

	"github.com/fjod/marketplace/internal/domain"
)

// CartCache fills are versioned: read Version before loading the cart from the
// store, then pass it to Set. Delete bumps the version, so a fill that raced
// an invalidation is dropped with ErrStaleVersion.
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Version(ctx context.Context, userID string) (int64, error)
	Set(ctx context.Context, userID string, version int64, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

var (
	ErrCacheMiss    = errors.New("cache miss")
	ErrStaleVersion = errors.New("cart cache version changed")
)

// NopCache is used when no Redis address is configured. Every read misses.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*domain.Cart, error) { return nil, ErrCacheMiss }

func (NopCache) Version(context.Context, string) (int64, error) { return 0, nil }

func (NopCache) Set(context.Context, string, int64, *domain.Cart) error { return nil }

func (NopCache) Delete(context.Context, string) error { return nil }
