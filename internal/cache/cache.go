package cache

import (
	"context"
	"errors"

	"github.com/MohamedMostafa02/E-CommerceApplication/internal/domain"
	"github.com/google/uuid"
)

var ErrCacheMiss = errors.New("order not in cache")

// OrderCache is a read-through cache for order lookups. A miss is not an
// error condition for callers; they fall back to the repository.
type OrderCache interface {
	Get(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	Set(ctx context.Context, orderID uuid.UUID, order *domain.Order) error
	Delete(ctx context.Context, orderID uuid.UUID) error
}
