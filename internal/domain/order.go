package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCanceled   OrderStatus = "CANCELED"
)

// ShippingCost is the flat shipping fee applied to every order.
const ShippingCost = 10.00

// allowedTransitions is the single source of truth for order status changes.
// A status that maps to an empty list is terminal.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCanceled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCanceled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCanceled:   {},
}

// KnownOrderStatus reports whether s has an entry in the transition table.
func KnownOrderStatus(s OrderStatus) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransitionTo reports whether an order may move from one status to another.
// Same-status updates are not allowed.
func CanTransitionTo(from, to OrderStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0 && KnownOrderStatus(s)
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// OrderItem is an immutable snapshot of a product at order-creation time,
// decoupled from later product price changes.
type OrderItem struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Discount    float64 `json:"discount"`
	TotalPrice  float64 `json:"total_price"`
}

type Order struct {
	ID                  uuid.UUID
	OrderNumber         string
	CustomerID          uuid.UUID
	BillingAddressID    uuid.UUID
	ShippingAddressID   uuid.UUID
	TotalBaseAmount     float64
	TotalDiscountAmount float64
	ShippingCost        float64
	TotalAmount         float64
	Status              OrderStatus
	Items               []OrderItem
	OrderDate           time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
