package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Execer is satisfied by both *sql.DB and *sql.Tx. Order creation passes its
// transaction so the decrement commits or rolls back with the order.
type Execer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Ledger decrements product stock. The conditional UPDATE takes a row-level
// write lock, so concurrent decrements of the same product serialize and can
// never drive stock below zero.
type Ledger struct{}

func NewLedger() *Ledger {
	return &Ledger{}
}

// ReserveAndDecrement atomically checks and decrements stock for one product,
// returning the remaining quantity. It must run on the same transaction as
// the order insert so a later failure discards the decrement.
func (l *Ledger) ReserveAndDecrement(ctx context.Context, db Execer, productID int64, quantity int) (int, error) {
	var newStock int
	err := db.QueryRowContext(ctx,
		`UPDATE products
		 SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		 WHERE id = $1 AND stock_quantity >= $2
		 RETURNING stock_quantity`,
		productID, quantity).Scan(&newStock)
	if err == nil {
		return newStock, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("decrement stock for product %d: %w", productID, err)
	}

	// The conditional update matched nothing: either the product is missing
	// or its stock is too low.
	var exists bool
	if err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`,
		productID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check product %d: %w", productID, err)
	}
	if !exists {
		return 0, fmt.Errorf("product %d: %w", productID, ErrProductNotFound)
	}
	return 0, fmt.Errorf("product %d: %w", productID, ErrInsufficientStock)
}
