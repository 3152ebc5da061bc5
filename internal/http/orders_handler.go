package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/MohamedMostafa02/E-CommerceApplication/internal/domain"
	"github.com/MohamedMostafa02/E-CommerceApplication/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type OrderService interface {
	CreateOrder(ctx context.Context, customerID, billingAddressID, shippingAddressID uuid.UUID) (*service.OrderDetails, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, newStatus domain.OrderStatus) error
}

type OrdersHandler struct {
	orders  OrderService
	timeout time.Duration
}

func NewOrdersHandler(orders OrderService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type CreateOrderRequestDTO struct {
	CustomerID        string `json:"customer_id"`
	BillingAddressID  string `json:"billing_address_id"`
	ShippingAddressID string `json:"shipping_address_id"`
}

type OrderItemDTO struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Discount    float64 `json:"discount"`
	TotalPrice  float64 `json:"total_price"`
}

type OrderResponseDTO struct {
	ID                  string         `json:"id"`
	OrderNumber         string         `json:"order_number"`
	CustomerID          string         `json:"customer_id"`
	BillingAddressID    string         `json:"billing_address_id"`
	ShippingAddressID   string         `json:"shipping_address_id"`
	TotalBaseAmount     float64        `json:"total_base_amount"`
	TotalDiscountAmount float64        `json:"total_discount_amount"`
	ShippingCost        float64        `json:"shipping_cost"`
	TotalAmount         float64        `json:"total_amount"`
	Status              string         `json:"status"`
	Items               []OrderItemDTO `json:"items"`
	OrderDate           string         `json:"order_date"`
}

type CustomerDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AddressDTO struct {
	ID         string `json:"id"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type OrderDetailsResponseDTO struct {
	OrderResponseDTO
	Customer        CustomerDTO `json:"customer"`
	BillingAddress  AddressDTO  `json:"billing_address"`
	ShippingAddress AddressDTO  `json:"shipping_address"`
}

type UpdateOrderStatusRequestDTO struct {
	Status string `json:"status"`
}

type ConfirmationResponseDTO struct {
	Message string `json:"message"`
}

// POST /api/v1/orders
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_customer_id", "customer_id must be a UUID")
		return
	}
	billingID, err := uuid.Parse(req.BillingAddressID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_billing_address_id", "billing_address_id must be a UUID")
		return
	}
	shippingID, err := uuid.Parse(req.ShippingAddressID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_shipping_address_id", "shipping_address_id must be a UUID")
		return
	}

	details, err := h.orders.CreateOrder(ctx, customerID, billingID, shippingID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertOrderDetails(details))
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseUUIDParam(w, r, "order_id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListOrders(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, convertOrder(o))
	}
	respondJSON(w, http.StatusOK, dtos)
}

// GET /api/v1/customers/{customer_id}/orders
func (h *OrdersHandler) ListOrdersByCustomer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customerID, ok := parseUUIDParam(w, r, "customer_id")
	if !ok {
		return
	}

	orders, err := h.orders.ListOrdersByCustomer(ctx, customerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, convertOrder(o))
	}
	respondJSON(w, http.StatusOK, dtos)
}

// PUT /api/v1/orders/{order_id}/status
func (h *OrdersHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseUUIDParam(w, r, "order_id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Status == "" {
		respondError(w, http.StatusBadRequest, "missing_status", "status is required")
		return
	}

	if err := h.orders.UpdateOrderStatus(ctx, orderID, domain.OrderStatus(req.Status)); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ConfirmationResponseDTO{
		Message: "Order status for " + orderID.String() + " updated successfully.",
	})
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Discount:    item.Discount,
			TotalPrice:  item.TotalPrice,
		})
	}

	return OrderResponseDTO{
		ID:                  o.ID.String(),
		OrderNumber:         o.OrderNumber,
		CustomerID:          o.CustomerID.String(),
		BillingAddressID:    o.BillingAddressID.String(),
		ShippingAddressID:   o.ShippingAddressID.String(),
		TotalBaseAmount:     o.TotalBaseAmount,
		TotalDiscountAmount: o.TotalDiscountAmount,
		ShippingCost:        o.ShippingCost,
		// Rounding happens here and only here; stored amounts stay exact.
		TotalAmount: round2(o.TotalAmount),
		Status:      string(o.Status),
		Items:       items,
		OrderDate:   o.OrderDate.Format(time.RFC3339),
	}
}

func convertOrderDetails(d *service.OrderDetails) OrderDetailsResponseDTO {
	return OrderDetailsResponseDTO{
		OrderResponseDTO: convertOrder(d.Order),
		Customer: CustomerDTO{
			ID:    d.Customer.ID.String(),
			Name:  d.Customer.Name,
			Email: d.Customer.Email,
		},
		BillingAddress:  convertAddress(d.BillingAddress),
		ShippingAddress: convertAddress(d.ShippingAddress),
	}
}

func convertAddress(a *domain.Address) AddressDTO {
	return AddressDTO{
		ID:         a.ID.String(),
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: "",
	})
}

// handleServiceError maps service error classes to HTTP status codes.
// Unexpected errors get a generic message; internal detail stays in the logs.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, service.ErrInvalidState):
		respondError(w, http.StatusBadRequest, "invalid_state", err.Error())
	case errors.Is(err, service.ErrConflict):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
