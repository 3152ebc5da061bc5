package domain

import (
	"time"

	"github.com/google/uuid"
)

type CartItem struct {
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// Cart holds the items a customer intends to order. Item order is preserved;
// order creation consumes the items in the order they were added.
type Cart struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Items      []CartItem
	CheckedOut bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
