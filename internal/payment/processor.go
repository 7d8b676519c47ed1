// Package payment is the boundary to the hosted payment processor. Everything
// the rest of the module knows about the processor goes through Processor.
package payment

import (
	"context"
	"errors"
)

// Session lifecycle values reported by the processor.
const (
	StatusComplete = "complete"
	StatusOpen     = "open"
	StatusExpired  = "expired"

	PaymentPaid              = "paid"
	PaymentUnpaid            = "unpaid"
	PaymentNoPaymentRequired = "no_payment_required"
)

var (
	ErrSessionNotFound = errors.New("payment: checkout session not found")
	ErrUnavailable     = errors.New("payment: processor unavailable")
)

type LineItem struct {
	ProductID  string
	Name       string
	UnitAmount int64 // minor units
	Quantity   int64
	ImageURL   string
}

type SessionParams struct {
	LineItems     []LineItem
	CustomerEmail string
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
}

type SessionHandle struct {
	ID  string
	URL string
}

// SessionLine is one line as the processor recorded it. AmountTotal is the
// line total in minor units after the processor's own computation.
type SessionLine struct {
	ProductID   string
	Description string
	Quantity    int64
	AmountTotal int64
}

type Session struct {
	ID              string
	Status          string
	PaymentStatus   string
	CustomerEmail   string
	PaymentIntentID string
	AmountSubtotal  int64
	AmountTotal     int64
	Metadata        map[string]string
	Lines           []SessionLine
}

// Completed reports whether the shopper finished paying.
func (s *Session) Completed() bool {
	if s.Status != StatusComplete {
		return false
	}
	return s.PaymentStatus == PaymentPaid || s.PaymentStatus == PaymentNoPaymentRequired
}

type Processor interface {
	CreateCheckoutSession(ctx context.Context, p SessionParams) (SessionHandle, error)
	// RetrieveSession returns ErrSessionNotFound for unknown ids.
	RetrieveSession(ctx context.Context, id string) (*Session, error)
}
