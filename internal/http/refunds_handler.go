package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MohamedMostafa02/E-CommerceApplication/internal/domain"
	"github.com/google/uuid"
)

type RefundService interface {
	EligibleRefunds(ctx context.Context) ([]*domain.Cancellation, error)
	ProcessRefund(ctx context.Context, cancellationID uuid.UUID, method domain.RefundMethod,
		reason string, processedBy string) (*domain.Refund, error)
	UpdateRefundStatus(ctx context.Context, refundID uuid.UUID, transactionID string,
		method domain.RefundMethod, reason string, processedBy string, status domain.RefundStatus) (*domain.Refund, error)
	GetRefund(ctx context.Context, id uuid.UUID) (*domain.Refund, error)
	ListRefunds(ctx context.Context) ([]*domain.Refund, error)
}

type RefundsHandler struct {
	refunds RefundService
	timeout time.Duration
}

func NewRefundsHandler(refunds RefundService, timeout time.Duration) *RefundsHandler {
	return &RefundsHandler{
		refunds: refunds,
		timeout: timeout,
	}
}

type ProcessRefundRequestDTO struct {
	CancellationID string `json:"cancellation_id"`
	RefundMethod   string `json:"refund_method"`
	RefundReason   string `json:"refund_reason"`
	ProcessedBy    string `json:"processed_by"`
}

type UpdateRefundStatusRequestDTO struct {
	TransactionID string `json:"transaction_id"`
	RefundMethod  string `json:"refund_method"`
	RefundReason  string `json:"refund_reason"`
	ProcessedBy   string `json:"processed_by"`
	Status        string `json:"status"`
}

type RefundResponseDTO struct {
	ID             string  `json:"id"`
	CancellationID string  `json:"cancellation_id"`
	Amount         float64 `json:"amount"`
	Method         string  `json:"method"`
	TransactionID  *string `json:"transaction_id,omitempty"`
	Reason         string  `json:"reason,omitempty"`
	ProcessedBy    string  `json:"processed_by"`
	Status         string  `json:"status"`
	CreatedAt      string  `json:"created_at"`
}

// GET /api/v1/refunds/eligible
func (h *RefundsHandler) GetEligibleRefunds(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	eligible, err := h.refunds.EligibleRefunds(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	dtos := make([]CancellationResponseDTO, 0, len(eligible))
	for _, c := range eligible {
		dtos = append(dtos, convertCancellation(c))
	}
	respondJSON(w, http.StatusOK, dtos)
}

// POST /api/v1/refunds
func (h *RefundsHandler) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ProcessRefundRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cancellationID, err := uuid.Parse(req.CancellationID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_cancellation_id", "cancellation_id must be a UUID")
		return
	}

	refund, err := h.refunds.ProcessRefund(ctx, cancellationID,
		domain.RefundMethod(req.RefundMethod), req.RefundReason, req.ProcessedBy)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertRefund(refund))
}

// PUT /api/v1/refunds/{refund_id}/status
func (h *RefundsHandler) UpdateRefundStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	refundID, ok := parseUUIDParam(w, r, "refund_id")
	if !ok {
		return
	}

	var req UpdateRefundStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	refund, err := h.refunds.UpdateRefundStatus(ctx, refundID, req.TransactionID,
		domain.RefundMethod(req.RefundMethod), req.RefundReason, req.ProcessedBy,
		domain.RefundStatus(req.Status))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertRefund(refund))
}

// GET /api/v1/refunds/{refund_id}
func (h *RefundsHandler) GetRefund(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	refundID, ok := parseUUIDParam(w, r, "refund_id")
	if !ok {
		return
	}

	refund, err := h.refunds.GetRefund(ctx, refundID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertRefund(refund))
}

// GET /api/v1/refunds
func (h *RefundsHandler) ListRefunds(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	refunds, err := h.refunds.ListRefunds(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	dtos := make([]RefundResponseDTO, 0, len(refunds))
	for _, refund := range refunds {
		dtos = append(dtos, convertRefund(refund))
	}
	respondJSON(w, http.StatusOK, dtos)
}

func convertRefund(refund *domain.Refund) RefundResponseDTO {
	return RefundResponseDTO{
		ID:             refund.ID.String(),
		CancellationID: refund.CancellationID.String(),
		Amount:         round2(refund.Amount),
		Method:         string(refund.Method),
		TransactionID:  refund.TransactionID,
		Reason:         refund.Reason,
		ProcessedBy:    refund.ProcessedBy,
		Status:         string(refund.Status),
		CreatedAt:      refund.CreatedAt.Format(time.RFC3339),
	}
}
