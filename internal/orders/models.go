package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type LineItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Order is the persisted record of a paid checkout session. Amounts come from
// the processor, never from the client.
type Order struct {
	ID               string          `json:"-"`
	Number           string          `json:"order_number"`
	SessionID        string          `json:"session_id"`
	PaymentReference string          `json:"payment_reference"`
	CustomerEmail    string          `json:"customer_email"`
	CustomerName     string          `json:"customer_name"`
	ShippingAddress  string          `json:"shipping_address"`
	ShippingCity     string          `json:"shipping_city"`
	ShippingState    string          `json:"shipping_state"`
	ShippingZip      string          `json:"shipping_zip"`
	Items            []LineItem      `json:"order_items"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Tax              decimal.Decimal `json:"tax"`
	Shipping         decimal.Decimal `json:"shipping"`
	Total            decimal.Decimal `json:"total"`
	Status           Status          `json:"status"`
	OrderDate        time.Time       `json:"order_date"`
}

// Confirmation is the response body for a materialized order.
type Confirmation struct {
	OrderNumber string `json:"orderNumber"`
	Order       Order  `json:"order"`
}

// FromCents converts processor minor units to a major-unit amount.
func FromCents(c int64) decimal.Decimal { return decimal.New(c, -2) }

// ToCents is FromCents' inverse, rounded to the nearest minor unit.
func ToCents(d decimal.Decimal) int64 { return d.Shift(2).Round(0).IntPart() }

// UnitPrice derives a per-unit price from a line total. A zero quantity is
// treated as one.
func UnitPrice(lineTotalCents, qty int64) decimal.Decimal {
	if qty < 1 {
		qty = 1
	}
	return FromCents(lineTotalCents).Div(decimal.NewFromInt(qty)).Round(2)
}
