package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderConfirmed           = "OrderConfirmed"
	EventCheckoutSessionCompleted = "CheckoutSessionCompleted"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "shop-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // session id
	Payload       json.RawMessage `json:"payload"`
}

type ConfirmedItem struct {
	ProductID  string `json:"product_id"`
	Qty        int64  `json:"qty"`
	PriceCents int64  `json:"price_cents"`
}

type OrderConfirmedPayload struct {
	OrderNumber      string          `json:"order_number"`
	SessionID        string          `json:"session_id"`
	PaymentReference string          `json:"payment_reference"`
	CustomerEmail    string          `json:"customer_email"`
	TotalCents       int64           `json:"total_cents"`
	Items            []ConfirmedItem `json:"items"`
}

// CheckoutSessionCompletedPayload is enqueued by the webhook intake.
type CheckoutSessionCompletedPayload struct {
	SessionID       string `json:"session_id"`
	ProviderEventID string `json:"provider_event_id"`
}

func ConfirmedPayload(o Order) OrderConfirmedPayload {
	items := make([]ConfirmedItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ConfirmedItem{ProductID: it.ProductID, Qty: it.Quantity, PriceCents: ToCents(it.UnitPrice)})
	}
	return OrderConfirmedPayload{
		OrderNumber:      o.Number,
		SessionID:        o.SessionID,
		PaymentReference: o.PaymentReference,
		CustomerEmail:    o.CustomerEmail,
		TotalCents:       ToCents(o.Total),
		Items:            items,
	}
}

// NewEnvelope wraps payload as a version 1 event.
func NewEnvelope(eventType, producer, traceID, correlationID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: correlationID,
		Payload:       b,
	}, nil
}
