package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MohamedMostafa02/E-CommerceApplication/internal/domain"
	"github.com/MohamedMostafa02/E-CommerceApplication/internal/repository"
	"github.com/google/uuid"
)

var knownRefundMethods = map[domain.RefundMethod]bool{
	domain.RefundMethodOriginalPayment: true,
	domain.RefundMethodStoreCredit:     true,
	domain.RefundMethodBankTransfer:    true,
}

type RefundService struct {
	repo          repository.RefundRepository
	cancellations repository.CancellationRepository
	orders        repository.OrderRepository
	catalog       repository.CatalogRepository
	notifier      Notifier
}

func NewRefundService(repo repository.RefundRepository, cancellations repository.CancellationRepository,
	orders repository.OrderRepository, catalog repository.CatalogRepository, notifier Notifier) *RefundService {
	return &RefundService{
		repo:          repo,
		cancellations: cancellations,
		orders:        orders,
		catalog:       catalog,
		notifier:      notifier,
	}
}

// EligibleRefunds returns every approved cancellation that has no refund row
// yet. Eligibility is derived from row absence, so it can never drift from
// the refunds table.
func (s *RefundService) EligibleRefunds(ctx context.Context) ([]*domain.Cancellation, error) {
	eligible, err := s.repo.ListEligibleRefunds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list eligible refunds: %w", err)
	}
	return eligible, nil
}

// ProcessRefund issues a refund for an approved cancellation. Eligibility is
// re-validated inside the insert transaction; losing the race to another
// caller yields Conflict and exactly one refund row survives.
func (s *RefundService) ProcessRefund(ctx context.Context, cancellationID uuid.UUID,
	method domain.RefundMethod, reason string, processedBy string) (*domain.Refund, error) {

	if !knownRefundMethods[method] {
		return nil, fmt.Errorf("%w: unknown refund method %q", ErrInvalidInput, method)
	}
	if processedBy == "" {
		return nil, fmt.Errorf("%w: processedBy is required", ErrInvalidInput)
	}

	cancellation, err := s.cancellations.GetCancellation(ctx, cancellationID)
	if errors.Is(err, repository.ErrCancellationNotFound) {
		return nil, fmt.Errorf("cancellation %s: %w", cancellationID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("look up cancellation: %w", err)
	}
	if cancellation.Status != domain.CancellationStatusApproved {
		return nil, fmt.Errorf("%w: cancellation %s is not approved", ErrInvalidState, cancellationID)
	}

	order, err := s.orders.GetOrder(ctx, cancellation.OrderID)
	if err != nil {
		return nil, fmt.Errorf("look up canceled order: %w", err)
	}

	amount := order.TotalAmount
	if cancellation.Charges != nil {
		amount -= *cancellation.Charges
	}
	if amount < 0 {
		amount = 0
	}

	refund := &domain.Refund{
		ID:             uuid.New(),
		CancellationID: cancellationID,
		Amount:         amount,
		Method:         method,
		Reason:         reason,
		ProcessedBy:    processedBy,
		Status:         domain.RefundStatusPending,
	}

	if err := s.repo.CreateRefund(ctx, refund); err != nil {
		switch {
		case errors.Is(err, repository.ErrRefundExists):
			return nil, fmt.Errorf("%w: refund already exists for cancellation %s", ErrConflict, cancellationID)
		case errors.Is(err, repository.ErrCancellationNotFound):
			return nil, fmt.Errorf("cancellation %s: %w", cancellationID, ErrNotFound)
		case errors.Is(err, repository.ErrCancellationDecided):
			return nil, fmt.Errorf("%w: cancellation %s is not approved", ErrInvalidState, cancellationID)
		default:
			return nil, fmt.Errorf("create refund: %w", err)
		}
	}

	if customer, lookupErr := s.catalog.GetCustomer(ctx, order.CustomerID); lookupErr == nil {
		notifyAsync(s.notifier, customer.Email,
			fmt.Sprintf("Refund initiated for order %s", order.OrderNumber),
			fmt.Sprintf("<p>Hi %s, a refund of %.2f for order <b>%s</b> is being processed.</p>",
				customer.Name, refund.Amount, order.OrderNumber))
	}

	return refund, nil
}

// UpdateRefundStatus is the manual reprocessing path. It only applies to
// refunds still in PENDING or FAILED, and records the gateway outcome.
func (s *RefundService) UpdateRefundStatus(ctx context.Context, refundID uuid.UUID, transactionID string,
	method domain.RefundMethod, reason string, processedBy string, status domain.RefundStatus) (*domain.Refund, error) {

	if transactionID == "" {
		return nil, fmt.Errorf("%w: transactionId is required", ErrInvalidInput)
	}
	if !knownRefundMethods[method] {
		return nil, fmt.Errorf("%w: unknown refund method %q", ErrInvalidInput, method)
	}
	if status != domain.RefundStatusCompleted && status != domain.RefundStatusFailed {
		return nil, fmt.Errorf("%w: refund status must be %s or %s", ErrInvalidInput,
			domain.RefundStatusCompleted, domain.RefundStatusFailed)
	}

	err := s.repo.UpdateRefund(ctx, refundID, transactionID, method, reason, processedBy, status)
	switch {
	case errors.Is(err, repository.ErrRefundNotFound):
		return nil, fmt.Errorf("refund %s: %w", refundID, ErrNotFound)
	case errors.Is(err, repository.ErrRefundFinal):
		return nil, fmt.Errorf("%w: refund %s is already completed", ErrInvalidState, refundID)
	case err != nil:
		return nil, fmt.Errorf("update refund: %w", err)
	}

	refund, err := s.repo.GetRefund(ctx, refundID)
	if err != nil {
		return nil, fmt.Errorf("reload refund: %w", err)
	}
	return refund, nil
}

func (s *RefundService) GetRefund(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	refund, err := s.repo.GetRefund(ctx, id)
	if errors.Is(err, repository.ErrRefundNotFound) {
		return nil, fmt.Errorf("refund %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("look up refund: %w", err)
	}
	return refund, nil
}

func (s *RefundService) ListRefunds(ctx context.Context) ([]*domain.Refund, error) {
	refunds, err := s.repo.ListRefunds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list refunds: %w", err)
	}
	return refunds, nil
}
