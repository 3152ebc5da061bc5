package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/MohamedMostafa02/E-CommerceApplication/internal/cache"
	"github.com/MohamedMostafa02/E-CommerceApplication/internal/domain"
	"github.com/MohamedMostafa02/E-CommerceApplication/internal/inventory"
	"github.com/MohamedMostafa02/E-CommerceApplication/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type OrderService struct {
	repo     repository.OrderRepository
	catalog  repository.CatalogRepository
	cache    cache.OrderCache
	notifier Notifier
	sfg      singleflight.Group // Prevents cache stampede on order reads
}

func NewOrderService(repo repository.OrderRepository, catalog repository.CatalogRepository,
	orderCache cache.OrderCache, notifier Notifier) *OrderService {
	return &OrderService{
		repo:     repo,
		catalog:  catalog,
		cache:    orderCache,
		notifier: notifier,
	}
}

// OrderDetails is the fully resolved order returned by CreateOrder.
type OrderDetails struct {
	Order           *domain.Order
	Customer        *domain.Customer
	BillingAddress  *domain.Address
	ShippingAddress *domain.Address
}

// CreateOrder builds an order from the customer's open cart. Stock decrement,
// order insert and cart consumption commit atomically in the repository; a
// failure on any item leaves stock and cart untouched.
func (s *OrderService) CreateOrder(ctx context.Context, customerID, billingAddressID, shippingAddressID uuid.UUID) (*OrderDetails, error) {
	customer, err := s.catalog.GetCustomer(ctx, customerID)
	if errors.Is(err, repository.ErrCustomerNotFound) {
		return nil, fmt.Errorf("customer %s: %w", customerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("look up customer: %w", err)
	}

	cart, err := s.repo.GetOpenCart(ctx, customerID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, fmt.Errorf("look up open cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	billing, err := s.resolveAddress(ctx, billingAddressID, customerID, "billing")
	if err != nil {
		return nil, err
	}
	shipping, err := s.resolveAddress(ctx, shippingAddressID, customerID, "shipping")
	if err != nil {
		return nil, err
	}

	// Snapshot every cart item at today's price. Totals stay unrounded;
	// rounding happens once, at the response boundary.
	var totalBase, totalDiscount float64
	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, cartItem := range cart.Items {
		product, err := s.catalog.GetProduct(ctx, cartItem.ProductID)
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, fmt.Errorf("product %d: %w", cartItem.ProductID, ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("look up product %d: %w", cartItem.ProductID, err)
		}

		base := float64(cartItem.Quantity) * product.Price
		discount := (product.DiscountPercent / 100.0) * base
		items = append(items, domain.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    cartItem.Quantity,
			UnitPrice:   product.Price,
			Discount:    discount,
			TotalPrice:  base - discount,
		})
		totalBase += base
		totalDiscount += discount
	}

	order := &domain.Order{
		ID:                  uuid.New(),
		OrderNumber:         generateOrderNumber(),
		CustomerID:          customerID,
		BillingAddressID:    billingAddressID,
		ShippingAddressID:   shippingAddressID,
		TotalBaseAmount:     totalBase,
		TotalDiscountAmount: totalDiscount,
		ShippingCost:        domain.ShippingCost,
		TotalAmount:         totalBase - totalDiscount + domain.ShippingCost,
		Status:              domain.OrderStatusPending,
		Items:               items,
		OrderDate:           time.Now().UTC(),
	}

	if err := s.repo.CreateOrder(ctx, order, cart.ID); err != nil {
		switch {
		case errors.Is(err, inventory.ErrInsufficientStock):
			return nil, fmt.Errorf("%w: %s", ErrInvalidState, err)
		case errors.Is(err, inventory.ErrProductNotFound):
			return nil, fmt.Errorf("%w: %s", ErrNotFound, err)
		case errors.Is(err, repository.ErrCartUnavailable):
			return nil, fmt.Errorf("%w: cart was already checked out", ErrConflict)
		default:
			return nil, fmt.Errorf("create order: %w", err)
		}
	}

	notifyAsync(s.notifier, customer.Email,
		fmt.Sprintf("Order %s confirmed", order.OrderNumber),
		fmt.Sprintf("<p>Hi %s, your order <b>%s</b> for %.2f has been placed.</p>",
			customer.Name, order.OrderNumber, order.TotalAmount))

	return &OrderDetails{
		Order:           order,
		Customer:        customer,
		BillingAddress:  billing,
		ShippingAddress: shipping,
	}, nil
}

func (s *OrderService) resolveAddress(ctx context.Context, addressID, customerID uuid.UUID, kind string) (*domain.Address, error) {
	address, err := s.catalog.GetAddress(ctx, addressID)
	if errors.Is(err, repository.ErrAddressNotFound) {
		return nil, fmt.Errorf("%w: %s address %s does not exist", ErrInvalidInput, kind, addressID)
	}
	if err != nil {
		return nil, fmt.Errorf("look up %s address: %w", kind, err)
	}
	if address.CustomerID != customerID {
		return nil, fmt.Errorf("%w: %s address does not belong to the customer", ErrInvalidInput, kind)
	}
	return address, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	// Use singleflight so concurrent cache misses for the same order hit
	// postgres once.
	v, err, _ := s.sfg.Do(id.String(), func() (interface{}, error) {
		order, err := s.cache.Get(ctx, id)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		order, errGet := s.repo.GetOrder(ctx, id)
		if errors.Is(errGet, repository.ErrOrderNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		if errGet != nil {
			return nil, fmt.Errorf("look up order: %w", errGet)
		}

		go func() {
			errSet := s.cache.Set(context.Background(), id, order)
			if errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return order, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Order), nil
}

func (s *OrderService) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Order, error) {
	if _, err := s.catalog.GetCustomer(ctx, customerID); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, fmt.Errorf("customer %s: %w", customerID, ErrNotFound)
		}
		return nil, fmt.Errorf("look up customer: %w", err)
	}

	orders, err := s.repo.ListOrdersByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list orders for customer: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus applies a transition from the table in internal/domain.
// No other code path mutates order status.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, newStatus domain.OrderStatus) error {
	if !domain.KnownOrderStatus(newStatus) {
		return fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, newStatus)
	}

	order, err := s.repo.GetOrder(ctx, id)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("look up order: %w", err)
	}

	if !domain.KnownOrderStatus(order.Status) {
		return fmt.Errorf("%w: current order status %q is invalid", ErrInvalidState, order.Status)
	}
	if !domain.CanTransitionTo(order.Status, newStatus) {
		return fmt.Errorf("%w: can't change order status from %s to %s", ErrInvalidState, order.Status, newStatus)
	}

	err = s.repo.UpdateOrderStatus(ctx, id, order.Status, newStatus)
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	case errors.Is(err, repository.ErrOrderStatusConflict):
		return fmt.Errorf("%w: order status changed concurrently", ErrConflict)
	case err != nil:
		return fmt.Errorf("update order status: %w", err)
	}

	s.invalidateCache(id)
	return nil
}

func (s *OrderService) invalidateCache(orderID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, orderID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}

// generateOrderNumber builds a human-readable order number:
// ORD-<UTC date>-<UTC time>-<4-digit random>.
func generateOrderNumber() string {
	suffix := int64(1000)
	if n, err := rand.Int(rand.Reader, big.NewInt(9000)); err == nil {
		suffix += n.Int64()
	} else {
		suffix += time.Now().UnixNano() % 9000
	}
	return fmt.Sprintf("ORD-%s-%d", time.Now().UTC().Format("20060102-150405"), suffix)
}
