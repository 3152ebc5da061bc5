package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/MohamedMostafa02/E-CommerceApplication/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	key := cacheKey(orderID)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var order domain.Order
	if err2 := json.Unmarshal(data, &order); err2 != nil {
		return nil, fmt.Errorf("unmarshal order failed: %w", err2)
	}

	return &order, nil
}

func (r RedisCache) Set(ctx context.Context, orderID uuid.UUID, order *domain.Order) error {
	key := cacheKey(orderID)
	jsonOrder, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order failed: %w", err)
	}

	// Jitter spreads expirations so a burst of cached orders doesn't thunder
	// back to postgres at once.
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	ret := r.client.Set(ctx, key, string(jsonOrder), ttl)
	if ret.Err() != nil {
		return fmt.Errorf("redis set failed: %w", ret.Err())
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, orderID uuid.UUID) error {
	key := cacheKey(orderID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func cacheKey(orderID uuid.UUID) string {
	return fmt.Sprintf("order:%s", orderID)
}
