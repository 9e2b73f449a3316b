package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/marketplace/internal/domain"
	"github.com/redis/go-redis/v9"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:     client,
		baseTTL:    15 * time.Minute,
		versionTTL: 24 * time.Hour,
	}
}

type RedisCache struct {
	client     *redis.Client
	baseTTL    time.Duration
	versionTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}

	return &cart, nil
}

// Version returns the invalidation counter; a user never invalidated is at 0.
func (r RedisCache) Version(ctx context.Context, userID string) (int64, error) {
	v, err := r.client.Get(ctx, versionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get version failed: %w", err)
	}
	return v, nil
}

// Set writes the cart only while the version still equals version. The
// version key is watched, so an invalidation landing between the check and
// the write aborts the transaction.
func (r RedisCache) Set(ctx context.Context, userID string, version int64, cart *domain.Cart) error {
	jsonCart, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	// Jitter spreads expiry so carts cached together don't expire together.
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	vKey := versionKey(userID)

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return ErrStaleVersion
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cacheKey(userID), jsonCart, r.baseTTL+jitter)
			return nil
		})
		return err
	}, vKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStaleVersion), errors.Is(err, redis.TxFailedErr):
		return ErrStaleVersion
	default:
		return fmt.Errorf("redis set failed: %w", err)
	}
}

// Delete drops the cached cart and bumps the version in one transaction.
func (r RedisCache) Delete(ctx context.Context, userID string) error {
	vKey := versionKey(userID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, vKey)
		pipe.Expire(ctx, vKey, r.versionTTL)
		pipe.Del(ctx, cacheKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

func versionKey(userID string) string {
	return fmt.Sprintf("cart:%s:version", userID)
}
