package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MohamedMostafa02/E-CommerceApplication/internal/domain"
	"github.com/google/uuid"
)

const orderColumns = `id, order_number, customer_id, billing_address_id, shipping_address_id,
	total_base_amount, total_discount_amount, shipping_cost, total_amount,
	status, items, order_date, created_at, updated_at`

func (r *Repository) GetOpenCart(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error) {
	query := `SELECT id, customer_id, items, is_checked_out, created_at, updated_at
	          FROM carts WHERE customer_id = $1 AND is_checked_out = FALSE`

	var cart domain.Cart
	var itemsJSON []byte
	err := r.db.QueryRowContext(ctx, query, customerID).Scan(
		&cart.ID,
		&cart.CustomerID,
		&itemsJSON,
		&cart.CheckedOut,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query open cart: %w", err)
	}

	if err := json.Unmarshal(itemsJSON, &cart.Items); err != nil {
		return nil, fmt.Errorf("unmarshal cart items: %w", err)
	}
	return &cart, nil
}

// CreateOrder runs the whole creation inside one transaction: stock is
// decremented item by item through the ledger, the order row is inserted and
// the cart is consumed. Any failure rolls back every prior decrement, so a
// mid-loop insufficient-stock error leaves no partial state behind.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order, cartID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order transaction: %w", err)
	}
	defer tx.Rollback()

	// Decrements happen in cart-item order; the row lock taken by each
	// update serializes concurrent orders for the same product.
	for _, item := range order.Items {
		if _, err := r.ledger.ReserveAndDecrement(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	query := `INSERT INTO orders (` + orderColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())`

	_, insertErr := tx.ExecContext(ctx, query,
		order.ID,
		order.OrderNumber,
		order.CustomerID,
		order.BillingAddressID,
		order.ShippingAddressID,
		order.TotalBaseAmount,
		order.TotalDiscountAmount,
		order.ShippingCost,
		order.TotalAmount,
		order.Status,
		itemsJSON,
		order.OrderDate)
	if insertErr != nil {
		return fmt.Errorf("insert order: %w", insertErr)
	}

	// Consume the cart exactly once. If another request got here first the
	// guard matches nothing and the whole transaction rolls back.
	res, err := tx.ExecContext(ctx,
		`UPDATE carts SET is_checked_out = TRUE, updated_at = NOW()
		 WHERE id = $1 AND is_checked_out = FALSE`,
		cartID)
	if err != nil {
		return fmt.Errorf("mark cart checked out: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cart update rows affected: %w", err)
	}
	if affected == 0 {
		return ErrCartUnavailable
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order transaction: %w", err)
	}
	return nil
}

func (r *Repository) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return order, nil
}

func (r *Repository) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	return r.queryOrders(ctx, query)
}

func (r *Repository) ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, customerID)
}

func (r *Repository) queryOrders(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var itemsJSON []byte
	if err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.CustomerID,
		&order.BillingAddressID,
		&order.ShippingAddressID,
		&order.TotalBaseAmount,
		&order.TotalDiscountAmount,
		&order.ShippingCost,
		&order.TotalAmount,
		&order.Status,
		&itemsJSON,
		&order.OrderDate,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	return &order, nil
}

// UpdateOrderStatus only writes when the stored status still matches from,
// so two concurrent updates cannot both win.
func (r *Repository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("order status rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check order exists: %w", err)
	}
	if !exists {
		return ErrOrderNotFound
	}
	return ErrOrderStatusConflict
}
