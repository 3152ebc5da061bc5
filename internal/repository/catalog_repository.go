package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MohamedMostafa02/E-CommerceApplication/internal/domain"
	"github.com/google/uuid"
)

func (r *Repository) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	query := `SELECT id, name, email, created_at FROM customers WHERE id = $1`

	var c domain.Customer
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query customer by id: %w", err)
	}
	return &c, nil
}

func (r *Repository) GetAddress(ctx context.Context, id uuid.UUID) (*domain.Address, error) {
	query := `SELECT id, customer_id, line1, line2, city, state, postal_code, country
	          FROM addresses WHERE id = $1`

	var a domain.Address
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID,
		&a.CustomerID,
		&a.Line1,
		&a.Line2,
		&a.City,
		&a.State,
		&a.PostalCode,
		&a.Country,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query address by id: %w", err)
	}
	return &a, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT id, name, price, discount_percent, stock_quantity FROM products WHERE id = $1`

	var p domain.Product
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.DiscountPercent,
		&p.StockQuantity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}
	return &p, nil
}

// UpdateStock sets an absolute stock level. Used by operator tooling (for
// example restocking after an approved cancellation); order creation goes
// through the inventory ledger instead.
func (r *Repository) UpdateStock(ctx context.Context, productID int64, newQuantity int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET stock_quantity = $2, updated_at = NOW() WHERE id = $1`,
		productID, newQuantity)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update stock rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}
