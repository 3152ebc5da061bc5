package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MohamedMostafa02/E-CommerceApplication/internal/domain"
	"github.com/MohamedMostafa02/E-CommerceApplication/internal/service"
	"github.com/google/uuid"
)

type RefundServiceMock struct {
	refund   *domain.Refund
	refunds  []*domain.Refund
	eligible []*domain.Cancellation
	err      error
}

func (m *RefundServiceMock) EligibleRefunds(ctx context.Context) ([]*domain.Cancellation, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.eligible, nil
}

func (m *RefundServiceMock) ProcessRefund(ctx context.Context, cancellationID uuid.UUID,
	method domain.RefundMethod, reason string, processedBy string) (*domain.Refund, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.refund, nil
}

func (m *RefundServiceMock) UpdateRefundStatus(ctx context.Context, refundID uuid.UUID, transactionID string,
	method domain.RefundMethod, reason string, processedBy string, status domain.RefundStatus) (*domain.Refund, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.refund, nil
}

func (m *RefundServiceMock) GetRefund(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.refund, nil
}

func (m *RefundServiceMock) ListRefunds(ctx context.Context) ([]*domain.Refund, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.refunds, nil
}

func testRefund() *domain.Refund {
	return &domain.Refund{
		ID:             uuid.New(),
		CancellationID: uuid.New(),
		Amount:         23.004, // rounds to 23.00 at the boundary
		Method:         domain.RefundMethodOriginalPayment,
		Reason:         "customer request",
		ProcessedBy:    "ops@example.com",
		Status:         domain.RefundStatusPending,
		CreatedAt:      time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestProcessRefund_Success(t *testing.T) {
	refund := testRefund()
	mock := &RefundServiceMock{refund: refund}
	handler := NewRefundsHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	body := fmt.Sprintf(`{"cancellation_id":%q,"refund_method":"ORIGINAL_PAYMENT","refund_reason":"customer request","processed_by":"ops@example.com"}`,
		refund.CancellationID)
	request := httptest.NewRequest("POST", "/api/v1/refunds", strings.NewReader(body))

	handler.ProcessRefund(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Errorf("expected %d, got %d", http.StatusCreated, recorder.Code)
	}

	var response RefundResponseDTO
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Amount != 23.00 {
		t.Errorf("expected amount 23.00, got %f", response.Amount)
	}
	if response.Status != "PENDING" {
		t.Errorf("expected status 'PENDING', got '%s'", response.Status)
	}
	if response.TransactionID != nil {
		t.Errorf("expected transaction_id to be omitted, got '%s'", *response.TransactionID)
	}
}

func TestProcessRefund_BadCancellationID(t *testing.T) {
	handler := NewRefundsHandler(&RefundServiceMock{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/api/v1/refunds",
		strings.NewReader(`{"cancellation_id":"nope"}`))

	handler.ProcessRefund(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestProcessRefund_Duplicate(t *testing.T) {
	mock := &RefundServiceMock{err: fmt.Errorf("%w: refund already exists", service.ErrConflict)}
	handler := NewRefundsHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	body := fmt.Sprintf(`{"cancellation_id":%q,"refund_method":"ORIGINAL_PAYMENT","processed_by":"ops"}`, uuid.New())
	request := httptest.NewRequest("POST", "/api/v1/refunds", strings.NewReader(body))

	handler.ProcessRefund(recorder, request)

	if recorder.Code != http.StatusConflict {
		t.Errorf("expected %d, got %d", http.StatusConflict, recorder.Code)
	}
}

func TestGetEligibleRefunds(t *testing.T) {
	mock := &RefundServiceMock{eligible: []*domain.Cancellation{testCancellation()}}
	handler := NewRefundsHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/v1/refunds/eligible", nil)

	handler.GetEligibleRefunds(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected %d, got %d", http.StatusOK, recorder.Code)
	}

	var response []CancellationResponseDTO
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response) != 1 {
		t.Fatalf("expected 1 eligible cancellation, got %d", len(response))
	}
}

func TestUpdateRefundStatus_Success(t *testing.T) {
	refund := testRefund()
	txn := "txn-42"
	refund.TransactionID = &txn
	refund.Status = domain.RefundStatusCompleted
	mock := &RefundServiceMock{refund: refund}
	handler := NewRefundsHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	body := `{"transaction_id":"txn-42","refund_method":"ORIGINAL_PAYMENT","refund_reason":"settled","processed_by":"ops","status":"COMPLETED"}`
	request := withURLParam(
		httptest.NewRequest("PUT", "/api/v1/refunds/"+refund.ID.String()+"/status", strings.NewReader(body)),
		"refund_id", refund.ID.String())

	handler.UpdateRefundStatus(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected %d, got %d", http.StatusOK, recorder.Code)
	}

	var response RefundResponseDTO
	json.NewDecoder(recorder.Body).Decode(&response)
	if response.Status != "COMPLETED" {
		t.Errorf("expected status 'COMPLETED', got '%s'", response.Status)
	}
	if response.TransactionID == nil || *response.TransactionID != "txn-42" {
		t.Errorf("expected transaction_id 'txn-42', got %v", response.TransactionID)
	}
}

func TestUpdateRefundStatus_Final(t *testing.T) {
	mock := &RefundServiceMock{err: fmt.Errorf("%w: refund already completed", service.ErrInvalidState)}
	handler := NewRefundsHandler(mock, 5*time.Second)

	id := uuid.New()
	recorder := httptest.NewRecorder()
	body := `{"transaction_id":"txn-42","refund_method":"ORIGINAL_PAYMENT","processed_by":"ops","status":"FAILED"}`
	request := withURLParam(
		httptest.NewRequest("PUT", "/api/v1/refunds/"+id.String()+"/status", strings.NewReader(body)),
		"refund_id", id.String())

	handler.UpdateRefundStatus(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}
