package domain

import (
	"time"

	"github.com/google/uuid"
)

type CancellationStatus string

const (
	CancellationStatusRequested CancellationStatus = "REQUESTED"
	CancellationStatusApproved  CancellationStatus = "APPROVED"
	CancellationStatusRejected  CancellationStatus = "REJECTED"
)

// IsTerminal reports whether an operator decision has been made.
func (s CancellationStatus) IsTerminal() bool {
	return s == CancellationStatusApproved || s == CancellationStatusRejected
}

func (s CancellationStatus) String() string {
	return string(s)
}

// Cancellation is a customer's request to cancel an order. It is created in
// REQUESTED status and moved to APPROVED or REJECTED by an operator.
type Cancellation struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	Status      CancellationStatus
	Reason      string
	ProcessedBy *string
	Charges     *float64
	Remarks     string
	RequestedAt time.Time
	ProcessedAt *time.Time
}
