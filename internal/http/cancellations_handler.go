package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MohamedMostafa02/E-CommerceApplication/internal/domain"
	"github.com/google/uuid"
)

type CancellationService interface {
	RequestCancellation(ctx context.Context, orderID uuid.UUID, reason string) (*domain.Cancellation, error)
	GetCancellation(ctx context.Context, id uuid.UUID) (*domain.Cancellation, error)
	ListCancellations(ctx context.Context) ([]*domain.Cancellation, error)
	UpdateCancellationStatus(ctx context.Context, id uuid.UUID, status domain.CancellationStatus,
		processedBy *string, charges *float64, remarks string) error
}

type CancellationsHandler struct {
	cancellations CancellationService
	timeout       time.Duration
}

func NewCancellationsHandler(cancellations CancellationService, timeout time.Duration) *CancellationsHandler {
	return &CancellationsHandler{
		cancellations: cancellations,
		timeout:       timeout,
	}
}

type RequestCancellationDTO struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

type UpdateCancellationStatusDTO struct {
	Status      string   `json:"status"`
	ProcessedBy *string  `json:"processed_by"`
	Charges     *float64 `json:"charges"`
	Remarks     string   `json:"remarks"`
}

type CancellationResponseDTO struct {
	ID          string   `json:"id"`
	OrderID     string   `json:"order_id"`
	Status      string   `json:"status"`
	Reason      string   `json:"reason"`
	ProcessedBy *string  `json:"processed_by,omitempty"`
	Charges     *float64 `json:"charges,omitempty"`
	Remarks     string   `json:"remarks,omitempty"`
	RequestedAt string   `json:"requested_at"`
	ProcessedAt *string  `json:"processed_at,omitempty"`
}

// POST /api/v1/cancellations
func (h *CancellationsHandler) RequestCancellation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RequestCancellationDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	cancellation, err := h.cancellations.RequestCancellation(ctx, orderID, req.Reason)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertCancellation(cancellation))
}

// GET /api/v1/cancellations/{cancellation_id}
func (h *CancellationsHandler) GetCancellation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cancellationID, ok := parseUUIDParam(w, r, "cancellation_id")
	if !ok {
		return
	}

	cancellation, err := h.cancellations.GetCancellation(ctx, cancellationID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertCancellation(cancellation))
}

// GET /api/v1/cancellations
func (h *CancellationsHandler) ListCancellations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cancellations, err := h.cancellations.ListCancellations(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	dtos := make([]CancellationResponseDTO, 0, len(cancellations))
	for _, c := range cancellations {
		dtos = append(dtos, convertCancellation(c))
	}
	respondJSON(w, http.StatusOK, dtos)
}

// PUT /api/v1/cancellations/{cancellation_id}/status
func (h *CancellationsHandler) UpdateCancellationStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cancellationID, ok := parseUUIDParam(w, r, "cancellation_id")
	if !ok {
		return
	}

	var req UpdateCancellationStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Status == "" {
		respondError(w, http.StatusBadRequest, "missing_status", "status is required")
		return
	}

	err := h.cancellations.UpdateCancellationStatus(ctx, cancellationID,
		domain.CancellationStatus(req.Status), req.ProcessedBy, req.Charges, req.Remarks)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ConfirmationResponseDTO{
		Message: "Cancellation " + cancellationID.String() + " updated successfully.",
	})
}

func convertCancellation(c *domain.Cancellation) CancellationResponseDTO {
	dto := CancellationResponseDTO{
		ID:          c.ID.String(),
		OrderID:     c.OrderID.String(),
		Status:      string(c.Status),
		Reason:      c.Reason,
		ProcessedBy: c.ProcessedBy,
		Charges:     c.Charges,
		Remarks:     c.Remarks,
		RequestedAt: c.RequestedAt.Format(time.RFC3339),
	}
	if c.ProcessedAt != nil {
		processedAt := c.ProcessedAt.Format(time.RFC3339)
		dto.ProcessedAt = &processedAt
	}
	return dto
}
