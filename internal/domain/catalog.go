package domain

import (
	"time"

	"github.com/google/uuid"
)

// Customer, Address and Product are owned by other subsystems; the
// fulfillment core only reads them (and decrements product stock).

type Customer struct {
	ID        uuid.UUID
	Name      string
	Email     string
	CreatedAt time.Time
}

type Address struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

type Product struct {
	ID              int64
	Name            string
	Price           float64
	DiscountPercent float64
	StockQuantity   int
}
