package service

import (
	"context"
	"sync"
	"time"

	"github.com/MohamedMostafa02/E-CommerceApplication/internal/cache"
	"github.com/MohamedMostafa02/E-CommerceApplication/internal/domain"
	"github.com/MohamedMostafa02/E-CommerceApplication/internal/repository"
	"github.com/google/uuid"
)

// In-memory fakes for the repository, cache and notifier interfaces. They
// mirror the conflict semantics of the postgres implementation so service
// tests can exercise every error class without a database.

type fakeCatalog struct {
	customers map[uuid.UUID]*domain.Customer
	addresses map[uuid.UUID]*domain.Address
	products  map[int64]*domain.Product
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		customers: make(map[uuid.UUID]*domain.Customer),
		addresses: make(map[uuid.UUID]*domain.Address),
		products:  make(map[int64]*domain.Product),
	}
}

func (f *fakeCatalog) GetCustomer(_ context.Context, id uuid.UUID) (*domain.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, repository.ErrCustomerNotFound
	}
	return c, nil
}

func (f *fakeCatalog) GetAddress(_ context.Context, id uuid.UUID) (*domain.Address, error) {
	a, ok := f.addresses[id]
	if !ok {
		return nil, repository.ErrAddressNotFound
	}
	return a, nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeCatalog) UpdateStock(_ context.Context, productID int64, newQuantity int) error {
	p, ok := f.products[productID]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.StockQuantity = newQuantity
	return nil
}

type fakeOrderRepo struct {
	mu        sync.Mutex
	carts     map[uuid.UUID]*domain.Cart // keyed by cart ID
	orders    map[uuid.UUID]*domain.Order
	createErr error
	updateErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		carts:  make(map[uuid.UUID]*domain.Cart),
		orders: make(map[uuid.UUID]*domain.Order),
	}
}

func (f *fakeOrderRepo) GetOpenCart(_ context.Context, customerID uuid.UUID) (*domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cart := range f.carts {
		if cart.CustomerID == customerID && !cart.CheckedOut {
			return cart, nil
		}
	}
	return nil, repository.ErrCartNotFound
}

func (f *fakeOrderRepo) CreateOrder(_ context.Context, order *domain.Order, cartID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cart, ok := f.carts[cartID]
	if !ok || cart.CheckedOut {
		return repository.ErrCartUnavailable
	}
	cart.CheckedOut = true
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) GetOrder(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) ListOrders(_ context.Context) ([]*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	orders := make([]*domain.Order, 0, len(f.orders))
	for _, o := range f.orders {
		orders = append(orders, o)
	}
	return orders, nil
}

func (f *fakeOrderRepo) ListOrdersByCustomer(_ context.Context, customerID uuid.UUID) ([]*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var orders []*domain.Order
	for _, o := range f.orders {
		if o.CustomerID == customerID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (f *fakeOrderRepo) UpdateOrderStatus(_ context.Context, id uuid.UUID, from, to domain.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	o, ok := f.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if o.Status != from {
		return repository.ErrOrderStatusConflict
	}
	o.Status = to
	return nil
}

type fakeCancellationRepo struct {
	mu            sync.Mutex
	cancellations map[uuid.UUID]*domain.Cancellation
}

func newFakeCancellationRepo() *fakeCancellationRepo {
	return &fakeCancellationRepo{cancellations: make(map[uuid.UUID]*domain.Cancellation)}
}

func (f *fakeCancellationRepo) CreateCancellation(_ context.Context, c *domain.Cancellation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.cancellations {
		if existing.OrderID == c.OrderID && existing.Status == domain.CancellationStatusRequested {
			return repository.ErrCancellationExists
		}
	}
	c.RequestedAt = time.Now().UTC()
	f.cancellations[c.ID] = c
	return nil
}

func (f *fakeCancellationRepo) GetCancellation(_ context.Context, id uuid.UUID) (*domain.Cancellation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cancellations[id]
	if !ok {
		return nil, repository.ErrCancellationNotFound
	}
	return c, nil
}

func (f *fakeCancellationRepo) ListCancellations(_ context.Context) ([]*domain.Cancellation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cancellations := make([]*domain.Cancellation, 0, len(f.cancellations))
	for _, c := range f.cancellations {
		cancellations = append(cancellations, c)
	}
	return cancellations, nil
}

func (f *fakeCancellationRepo) UpdateCancellationStatus(_ context.Context, id uuid.UUID,
	status domain.CancellationStatus, processedBy *string, charges *float64, remarks string) error {

	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cancellations[id]
	if !ok {
		return repository.ErrCancellationNotFound
	}
	if c.Status != domain.CancellationStatusRequested {
		return repository.ErrCancellationDecided
	}
	now := time.Now().UTC()
	c.Status = status
	c.ProcessedBy = processedBy
	c.Charges = charges
	c.Remarks = remarks
	c.ProcessedAt = &now
	return nil
}

type fakeRefundRepo struct {
	mu            sync.Mutex
	cancellations *fakeCancellationRepo
	refunds       map[uuid.UUID]*domain.Refund
}

func newFakeRefundRepo(cancellations *fakeCancellationRepo) *fakeRefundRepo {
	return &fakeRefundRepo{
		cancellations: cancellations,
		refunds:       make(map[uuid.UUID]*domain.Refund),
	}
}

func (f *fakeRefundRepo) ListEligibleRefunds(_ context.Context) ([]*domain.Cancellation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	refunded := make(map[uuid.UUID]bool, len(f.refunds))
	for _, r := range f.refunds {
		refunded[r.CancellationID] = true
	}

	f.cancellations.mu.Lock()
	defer f.cancellations.mu.Unlock()
	var eligible []*domain.Cancellation
	for _, c := range f.cancellations.cancellations {
		if c.Status == domain.CancellationStatusApproved && !refunded[c.ID] {
			eligible = append(eligible, c)
		}
	}
	return eligible, nil
}

func (f *fakeRefundRepo) CreateRefund(_ context.Context, r *domain.Refund) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cancellations.mu.Lock()
	c, ok := f.cancellations.cancellations[r.CancellationID]
	f.cancellations.mu.Unlock()
	if !ok {
		return repository.ErrCancellationNotFound
	}
	if c.Status != domain.CancellationStatusApproved {
		return repository.ErrCancellationDecided
	}
	for _, existing := range f.refunds {
		if existing.CancellationID == r.CancellationID {
			return repository.ErrRefundExists
		}
	}
	r.CreatedAt = time.Now().UTC()
	f.refunds[r.ID] = r
	return nil
}

func (f *fakeRefundRepo) GetRefund(_ context.Context, id uuid.UUID) (*domain.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.refunds[id]
	if !ok {
		return nil, repository.ErrRefundNotFound
	}
	return r, nil
}

func (f *fakeRefundRepo) ListRefunds(_ context.Context) ([]*domain.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	refunds := make([]*domain.Refund, 0, len(f.refunds))
	for _, r := range f.refunds {
		refunds = append(refunds, r)
	}
	return refunds, nil
}

func (f *fakeRefundRepo) UpdateRefund(_ context.Context, id uuid.UUID, transactionID string,
	method domain.RefundMethod, reason string, processedBy string, status domain.RefundStatus) error {

	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.refunds[id]
	if !ok {
		return repository.ErrRefundNotFound
	}
	if !r.Status.Reprocessable() {
		return repository.ErrRefundFinal
	}
	r.TransactionID = &transactionID
	r.Method = method
	r.Reason = reason
	r.ProcessedBy = processedBy
	r.Status = status
	r.UpdatedAt = time.Now().UTC()
	return nil
}

type fakeCache struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order
}

func newFakeCache() *fakeCache {
	return &fakeCache{orders: make(map[uuid.UUID]*domain.Order)}
}

func (f *fakeCache) Get(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return o, nil
}

func (f *fakeCache) Set(_ context.Context, id uuid.UUID, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[id] = order
	return nil
}

func (f *fakeCache) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.orders, id)
	return nil
}

func (f *fakeCache) contains(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.orders[id]
	return ok
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string // recipient addresses in send order
}

func (f *fakeNotifier) SendEmail(_ context.Context, to, _, _ string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)
	return nil
}

func (f *fakeNotifier) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
