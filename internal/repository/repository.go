package repository

import (
	"context"
	"errors"

	"github.com/MohamedMostafa02/E-CommerceApplication/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrAddressNotFound      = errors.New("address not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrCartNotFound         = errors.New("no open cart for customer")
	ErrCartUnavailable      = errors.New("cart already checked out")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderStatusConflict  = errors.New("order status changed concurrently")
	ErrCancellationNotFound = errors.New("cancellation not found")
	ErrCancellationExists   = errors.New("an open cancellation already exists for this order")
	ErrCancellationDecided  = errors.New("cancellation already approved or rejected")
	ErrRefundNotFound       = errors.New("refund not found")
	ErrRefundExists         = errors.New("refund already exists for this cancellation")
	ErrRefundFinal          = errors.New("refund is completed and can no longer be updated")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// CatalogRepository reads entities owned by other subsystems.
type CatalogRepository interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	GetAddress(ctx context.Context, id uuid.UUID) (*domain.Address, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	UpdateStock(ctx context.Context, productID int64, newQuantity int) error
}

type OrderRepository interface {
	GetOpenCart(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error)
	// CreateOrder persists the order, decrements stock for every item and
	// marks the cart checked out, all inside one transaction.
	CreateOrder(ctx context.Context, order *domain.Order, cartID uuid.UUID) error
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Order, error)
	// UpdateOrderStatus is a compare-and-swap: it only applies when the
	// stored status still equals from.
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error
}

type CancellationRepository interface {
	CreateCancellation(ctx context.Context, c *domain.Cancellation) error
	GetCancellation(ctx context.Context, id uuid.UUID) (*domain.Cancellation, error)
	ListCancellations(ctx context.Context) ([]*domain.Cancellation, error)
	UpdateCancellationStatus(ctx context.Context, id uuid.UUID, status domain.CancellationStatus,
		processedBy *string, charges *float64, remarks string) error
}

type RefundRepository interface {
	// ListEligibleRefunds returns approved cancellations with no refund row.
	ListEligibleRefunds(ctx context.Context) ([]*domain.Cancellation, error)
	// CreateRefund re-validates eligibility inside the insert transaction.
	CreateRefund(ctx context.Context, r *domain.Refund) error
	GetRefund(ctx context.Context, id uuid.UUID) (*domain.Refund, error)
	ListRefunds(ctx context.Context) ([]*domain.Refund, error)
	// UpdateRefund applies a manual reprocess; it fails unless the stored
	// status is still PENDING or FAILED.
	UpdateRefund(ctx context.Context, id uuid.UUID, transactionID string, method domain.RefundMethod,
		reason string, processedBy string, status domain.RefundStatus) error
}
