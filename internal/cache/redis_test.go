package cache

import (
	"context"
	"testing"

	"github.com/MohamedMostafa02/E-CommerceApplication/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return cache, cleanup
}

func sampleOrder() *domain.Order {
	return &domain.Order{
		ID:                  uuid.New(),
		OrderNumber:         "ORD-20260830-101500-4242",
		CustomerID:          uuid.New(),
		TotalBaseAmount:     20.0,
		TotalDiscountAmount: 2.0,
		ShippingCost:        10.0,
		TotalAmount:         28.0,
		Status:              domain.OrderStatusPending,
		Items: []domain.OrderItem{
			{ProductID: 1, ProductName: "Widget", Quantity: 2, UnitPrice: 10.0, Discount: 2.0, TotalPrice: 18.0},
		},
	}
}

func TestRedisCache_SetAndGet(t *testing.T) {
	cache, cleanup := setupTestRedis(t)
	defer cleanup()

	order := sampleOrder()
	require.NoError(t, cache.Set(context.Background(), order.ID, order))

	got, err := cache.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, got.OrderNumber)
	assert.Equal(t, order.TotalAmount, got.TotalAmount)
	assert.Len(t, got.Items, 1)
}

func TestRedisCache_GetMiss(t *testing.T) {
	cache, cleanup := setupTestRedis(t)
	defer cleanup()

	_, err := cache.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_Delete(t *testing.T) {
	cache, cleanup := setupTestRedis(t)
	defer cleanup()

	order := sampleOrder()
	require.NoError(t, cache.Set(context.Background(), order.ID, order))
	require.NoError(t, cache.Delete(context.Background(), order.ID))

	_, err := cache.Get(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrCacheMiss)
}
