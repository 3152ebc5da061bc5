package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Error classes the transport layer maps to protocol codes. Concrete service
// errors wrap exactly one of these, so callers branch with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
)

var ErrEmptyCart = fmt.Errorf("%w: cannot create an order without items in the cart", ErrInvalidState)

// Notifier sends customer-facing email. The core treats it as
// fire-and-forget: failures are logged, never surfaced to the caller.
type Notifier interface {
	SendEmail(ctx context.Context, to, subject, body string, isHTML bool) error
}

func notifyAsync(n Notifier, to, subject, body string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := n.SendEmail(ctx, to, subject, body, true); err != nil {
			log.Printf("send email to %s failed: %v", to, err)
		}
	}()
}
