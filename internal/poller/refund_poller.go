package poller

import (
	"context"
	"log"
	"time"

	"github.com/MohamedMostafa02/E-CommerceApplication/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type refundReconciler interface {
	EligibleRefunds(ctx context.Context) ([]*domain.Cancellation, error)
	ProcessRefund(ctx context.Context, cancellationID uuid.UUID, method domain.RefundMethod,
		reason string, processedBy string) (*domain.Refund, error)
}

// RefundPoller issues refunds for approved cancellations on a fixed
// interval, so an approved cancellation never waits on an operator to kick
// off its refund.
type RefundPoller struct {
	refunds     refundReconciler
	tick        time.Duration
	method      domain.RefundMethod
	processedBy string
	sfg         singleflight.Group
}

func NewRefundPoller(refunds refundReconciler, tick time.Duration, method domain.RefundMethod) *RefundPoller {
	return &RefundPoller{
		refunds:     refunds,
		tick:        tick,
		method:      method,
		processedBy: "refund-scheduler",
	}
}

func (p *RefundPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.reconcile(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// reconcile runs one pass under a singleflight key so overlapping ticks (or
// an overlapping manual trigger) collapse into the in-flight pass instead of
// racing each other for the same cancellations.
func (p *RefundPoller) reconcile(ctx context.Context) {
	_, _, _ = p.sfg.Do("refund-reconcile", func() (interface{}, error) {
		p.processEligible(ctx)
		return nil, nil
	})
}

func (p *RefundPoller) processEligible(ctx context.Context) {
	eligible, err := p.refunds.EligibleRefunds(ctx)
	if err != nil {
		log.Printf("failed to fetch eligible refunds: %v", err)
		return
	}

	for _, cancellation := range eligible {
		if ctx.Err() != nil {
			return
		}
		// One bad item never aborts the batch; it stays eligible for the
		// next tick.
		_, errProcess := p.refunds.ProcessRefund(ctx, cancellation.ID, p.method,
			"automatic refund for approved cancellation", p.processedBy)
		if errProcess != nil {
			log.Printf("failed to process refund for cancellation %v: %v", cancellation.ID, errProcess)
			continue
		}
		log.Printf("refund issued for cancellation %v", cancellation.ID)
	}
}
