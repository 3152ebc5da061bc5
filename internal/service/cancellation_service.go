package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MohamedMostafa02/E-CommerceApplication/internal/domain"
	"github.com/MohamedMostafa02/E-CommerceApplication/internal/repository"
	"github.com/google/uuid"
)

type CancellationService struct {
	repo     repository.CancellationRepository
	orders   repository.OrderRepository
	catalog  repository.CatalogRepository
	notifier Notifier
}

func NewCancellationService(repo repository.CancellationRepository, orders repository.OrderRepository,
	catalog repository.CatalogRepository, notifier Notifier) *CancellationService {
	return &CancellationService{
		repo:     repo,
		orders:   orders,
		catalog:  catalog,
		notifier: notifier,
	}
}

// RequestCancellation records a customer's cancellation request against an
// order. Only one undecided request may exist per order.
func (s *CancellationService) RequestCancellation(ctx context.Context, orderID uuid.UUID, reason string) (*domain.Cancellation, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("look up order: %w", err)
	}

	cancellation := &domain.Cancellation{
		ID:      uuid.New(),
		OrderID: order.ID,
		Status:  domain.CancellationStatusRequested,
		Reason:  reason,
	}

	if err := s.repo.CreateCancellation(ctx, cancellation); err != nil {
		if errors.Is(err, repository.ErrCancellationExists) {
			return nil, fmt.Errorf("%w: a cancellation request is already open for order %s", ErrConflict, orderID)
		}
		return nil, fmt.Errorf("create cancellation: %w", err)
	}

	return cancellation, nil
}

func (s *CancellationService) GetCancellation(ctx context.Context, id uuid.UUID) (*domain.Cancellation, error) {
	cancellation, err := s.repo.GetCancellation(ctx, id)
	if errors.Is(err, repository.ErrCancellationNotFound) {
		return nil, fmt.Errorf("cancellation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("look up cancellation: %w", err)
	}
	return cancellation, nil
}

func (s *CancellationService) ListCancellations(ctx context.Context) ([]*domain.Cancellation, error) {
	cancellations, err := s.repo.ListCancellations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cancellations: %w", err)
	}
	return cancellations, nil
}

// UpdateCancellationStatus records the operator decision. Approval does not
// cancel the order or restock inventory; those stay explicit operator
// actions through the order-status and stock endpoints.
func (s *CancellationService) UpdateCancellationStatus(ctx context.Context, id uuid.UUID,
	status domain.CancellationStatus, processedBy *string, charges *float64, remarks string) error {

	if !status.IsTerminal() {
		return fmt.Errorf("%w: cancellation status must be %s or %s", ErrInvalidInput,
			domain.CancellationStatusApproved, domain.CancellationStatusRejected)
	}
	if charges != nil && *charges < 0 {
		return fmt.Errorf("%w: cancellation charges must be non-negative", ErrInvalidInput)
	}

	err := s.repo.UpdateCancellationStatus(ctx, id, status, processedBy, charges, remarks)
	switch {
	case errors.Is(err, repository.ErrCancellationNotFound):
		return fmt.Errorf("cancellation %s: %w", id, ErrNotFound)
	case errors.Is(err, repository.ErrCancellationDecided):
		return fmt.Errorf("%w: cancellation %s was already decided", ErrInvalidState, id)
	case err != nil:
		return fmt.Errorf("update cancellation status: %w", err)
	}

	s.notifyDecision(ctx, id, status)
	return nil
}

func (s *CancellationService) notifyDecision(ctx context.Context, id uuid.UUID, status domain.CancellationStatus) {
	cancellation, err := s.repo.GetCancellation(ctx, id)
	if err != nil {
		return
	}
	order, err := s.orders.GetOrder(ctx, cancellation.OrderID)
	if err != nil {
		return
	}
	customer, err := s.catalog.GetCustomer(ctx, order.CustomerID)
	if err != nil {
		return
	}

	notifyAsync(s.notifier, customer.Email,
		fmt.Sprintf("Cancellation request for order %s %s", order.OrderNumber, status),
		fmt.Sprintf("<p>Hi %s, your cancellation request for order <b>%s</b> was %s.</p>",
			customer.Name, order.OrderNumber, status))
}
