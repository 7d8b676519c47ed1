package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/webhook"
)

const (
	EventSessionCompleted             = "checkout.session.completed"
	EventSessionAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

var ErrBadSignature = errors.New("payment: webhook signature invalid")

// WebhookEvent is the part of a processor event this module acts on.
type WebhookEvent struct {
	ID        string
	Type      string
	SessionID string
}

// Settles reports whether the event means money has been captured for SessionID.
func (e WebhookEvent) Settles() bool {
	return e.SessionID != "" && (e.Type == EventSessionCompleted || e.Type == EventSessionAsyncPaymentSucceeded)
}

type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

func (v *WebhookVerifier) Parse(payload []byte, signature string) (WebhookEvent, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	out := WebhookEvent{ID: ev.ID, Type: string(ev.Type)}
	if ev.Type != EventSessionCompleted && ev.Type != EventSessionAsyncPaymentSucceeded {
		return out, nil
	}
	if ev.Data == nil {
		return out, fmt.Errorf("payment: event %s has no data", ev.ID)
	}
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
		return out, fmt.Errorf("payment: decode session from event %s: %w", ev.ID, err)
	}
	out.SessionID = cs.ID
	return out, nil
}
