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

const refundColumns = `id, cancellation_id, amount, method, transaction_id, reason,
	processed_by, status, created_at, updated_at`

// ListEligibleRefunds is the anti-join at the heart of reconciliation:
// approved cancellations for which no refund row exists. Eligibility is
// derived from row absence, never cached on the cancellation.
func (r *Repository) ListEligibleRefunds(ctx context.Context) ([]*domain.Cancellation, error) {
	query := `SELECT c.id, c.order_id, c.status, c.reason, c.processed_by, c.charges,
	                 c.remarks, c.requested_at, c.processed_at
	          FROM cancellations c
	          LEFT JOIN refunds rf ON rf.cancellation_id = c.id
	          WHERE c.status = $1 AND rf.id IS NULL
	          ORDER BY c.requested_at ASC`

	rows, err := r.db.QueryContext(ctx, query, domain.CancellationStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("query eligible refunds: %w", err)
	}
	defer rows.Close()

	var eligible []*domain.Cancellation
	for rows.Next() {
		c, err := scanCancellation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan eligible cancellation: %w", err)
		}
		eligible = append(eligible, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return eligible, nil
}

// CreateRefund re-validates eligibility at write time: the cancellation row
// is locked and re-checked inside the same transaction that inserts the
// refund, and the unique index on cancellation_id turns a lost race into
// ErrRefundExists instead of a second refund.
func (r *Repository) CreateRefund(ctx context.Context, refund *domain.Refund) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin refund transaction: %w", err)
	}
	defer tx.Rollback()

	var status domain.CancellationStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM cancellations WHERE id = $1 FOR UPDATE`,
		refund.CancellationID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCancellationNotFound
	}
	if err != nil {
		return fmt.Errorf("lock cancellation: %w", err)
	}
	if status != domain.CancellationStatusApproved {
		return ErrCancellationDecided
	}

	query := `INSERT INTO refunds (id, cancellation_id, amount, method, transaction_id,
	                               reason, processed_by, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())`

	_, insertErr := tx.ExecContext(ctx, query,
		refund.ID,
		refund.CancellationID,
		refund.Amount,
		refund.Method,
		refund.TransactionID,
		refund.Reason,
		refund.ProcessedBy,
		refund.Status)
	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrRefundExists
		}
		return fmt.Errorf("insert refund: %w", insertErr)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit refund transaction: %w", err)
	}
	return nil
}

func (r *Repository) GetRefund(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id = $1`

	refund, err := scanRefund(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRefundNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query refund by id: %w", err)
	}
	return refund, nil
}

func (r *Repository) ListRefunds(ctx context.Context) ([]*domain.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query refunds: %w", err)
	}
	defer rows.Close()

	var refunds []*domain.Refund
	for rows.Next() {
		refund, err := scanRefund(rows)
		if err != nil {
			return nil, fmt.Errorf("scan refund row: %w", err)
		}
		refunds = append(refunds, refund)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return refunds, nil
}

func scanRefund(row rowScanner) (*domain.Refund, error) {
	var refund domain.Refund
	if err := row.Scan(
		&refund.ID,
		&refund.CancellationID,
		&refund.Amount,
		&refund.Method,
		&refund.TransactionID,
		&refund.Reason,
		&refund.ProcessedBy,
		&refund.Status,
		&refund.CreatedAt,
		&refund.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &refund, nil
}

// UpdateRefund performs a manual reprocess. The current status is checked
// under a row lock, so a refund that just completed cannot be overwritten.
func (r *Repository) UpdateRefund(ctx context.Context, id uuid.UUID, transactionID string,
	method domain.RefundMethod, reason string, processedBy string, status domain.RefundStatus) error {

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin refund update transaction: %w", err)
	}
	defer tx.Rollback()

	var current domain.RefundStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM refunds WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRefundNotFound
	}
	if err != nil {
		return fmt.Errorf("lock refund: %w", err)
	}
	if !current.Reprocessable() {
		return ErrRefundFinal
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE refunds
		 SET transaction_id = $2, method = $3, reason = $4, processed_by = $5,
		     status = $6, updated_at = NOW()
		 WHERE id = $1`,
		id, transactionID, method, reason, processedBy, status)
	if err != nil {
		return fmt.Errorf("update refund: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit refund update: %w", err)
	}
	return nil
}
