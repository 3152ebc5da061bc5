package domain

import (
	"time"

	"github.com/google/uuid"
)

type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "PENDING"
	RefundStatusCompleted RefundStatus = "COMPLETED"
	RefundStatusFailed    RefundStatus = "FAILED"
)

func (s RefundStatus) String() string {
	return string(s)
}

// Reprocessable reports whether a refund may still be updated manually.
// Completed refunds are final.
func (s RefundStatus) Reprocessable() bool {
	return s == RefundStatusPending || s == RefundStatusFailed
}

type RefundMethod string

const (
	RefundMethodOriginalPayment RefundMethod = "ORIGINAL_PAYMENT"
	RefundMethodStoreCredit     RefundMethod = "STORE_CREDIT"
	RefundMethodBankTransfer    RefundMethod = "BANK_TRANSFER"
)

// Refund is the money returned for an approved cancellation. At most one
// refund exists per cancellation; the database enforces this with a unique
// index on cancellation_id.
type Refund struct {
	ID             uuid.UUID
	CancellationID uuid.UUID
	Amount         float64
	Method         RefundMethod
	TransactionID  *string
	Reason         string
	ProcessedBy    string
	Status         RefundStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
