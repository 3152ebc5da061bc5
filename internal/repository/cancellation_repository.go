package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MohamedMostafa02/E-CommerceApplication/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const cancellationColumns = `id, order_id, status, reason, processed_by, charges, remarks,
	requested_at, processed_at`

func (r *Repository) CreateCancellation(ctx context.Context, c *domain.Cancellation) error {
	query := `INSERT INTO cancellations (id, order_id, status, reason, requested_at)
	          VALUES ($1, $2, $3, $4, NOW())`

	_, err := r.db.ExecContext(ctx, query, c.ID, c.OrderID, c.Status, c.Reason)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrCancellationExists
		}
		return fmt.Errorf("insert cancellation: %w", err)
	}
	return nil
}

func (r *Repository) GetCancellation(ctx context.Context, id uuid.UUID) (*domain.Cancellation, error) {
	query := `SELECT ` + cancellationColumns + ` FROM cancellations WHERE id = $1`

	c, err := scanCancellation(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCancellationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cancellation by id: %w", err)
	}
	return c, nil
}

func (r *Repository) ListCancellations(ctx context.Context) ([]*domain.Cancellation, error) {
	query := `SELECT ` + cancellationColumns + ` FROM cancellations ORDER BY requested_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query cancellations: %w", err)
	}
	defer rows.Close()

	var cancellations []*domain.Cancellation
	for rows.Next() {
		c, err := scanCancellation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cancellation row: %w", err)
		}
		cancellations = append(cancellations, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return cancellations, nil
}

func scanCancellation(row rowScanner) (*domain.Cancellation, error) {
	var c domain.Cancellation
	if err := row.Scan(
		&c.ID,
		&c.OrderID,
		&c.Status,
		&c.Reason,
		&c.ProcessedBy,
		&c.Charges,
		&c.Remarks,
		&c.RequestedAt,
		&c.ProcessedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCancellationStatus records the operator decision. A cancellation is
// terminal once decided, so the guard only matches REQUESTED rows.
func (r *Repository) UpdateCancellationStatus(ctx context.Context, id uuid.UUID, status domain.CancellationStatus,
	processedBy *string, charges *float64, remarks string) error {

	res, err := r.db.ExecContext(ctx,
		`UPDATE cancellations
		 SET status = $2, processed_by = $3, charges = $4, remarks = $5, processed_at = NOW()
		 WHERE id = $1 AND status = $6`,
		id, status, processedBy, charges, remarks, domain.CancellationStatusRequested)
	if err != nil {
		return fmt.Errorf("update cancellation status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancellation update rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM cancellations WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check cancellation exists: %w", err)
	}
	if !exists {
		return ErrCancellationNotFound
	}
	return ErrCancellationDecided
}
