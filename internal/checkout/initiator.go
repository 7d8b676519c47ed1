package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/cart"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/payment"
	"github.com/shopspring/decimal"
)

// SessionIDPlaceholder is substituted by the processor on redirect.
const SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

// Amounts are whatever the shopper's screen showed. They are never sent on.
type Amounts struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

type Request struct {
	CartItems    []cart.Line `json:"cartItems"`
	CustomerInfo Draft       `json:"customerInfo"`
	Amounts      Amounts     `json:"amounts"`
}

type Handle struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url,omitempty"`
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Initiator struct {
	processor  payment.Processor
	successURL string
	cancelURL  string
	timeout    time.Duration
	log        *slog.Logger
}

func NewInitiator(p payment.Processor, cfg Config, log *slog.Logger) *Initiator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	return &Initiator{
		processor:  p,
		successURL: base + "/success?session_id=" + SessionIDPlaceholder,
		cancelURL:  base + "/cancel",
		timeout:    cfg.Timeout,
		log:        log.With("component", "checkout"),
	}
}

// Initiate opens a hosted payment session for the cart snapshot in req.
// The caller's cart is never modified.
func (i *Initiator) Initiate(ctx context.Context, req Request) (Handle, error) {
	if len(req.CartItems) == 0 {
		return Handle{}, ErrEmptyCart
	}
	if err := req.CustomerInfo.Validate(); err != nil {
		return Handle{}, err
	}

	items, subtotal, err := toLineItems(req.CartItems)
	if err != nil {
		i.log.Warn("malformed cart", "kind", "validation", "err", err)
		return Handle{}, &InitiationError{Err: err}
	}
	if !req.Amounts.Subtotal.IsZero() && !req.Amounts.Subtotal.Equal(subtotal) {
		i.log.Info("client subtotal differs from cart", "client", req.Amounts.Subtotal.StringFixed(2), "cart", subtotal.StringFixed(2))
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	h, err := i.processor.CreateCheckoutSession(ctx, payment.SessionParams{
		LineItems:     items,
		CustomerEmail: strings.TrimSpace(req.CustomerInfo.Email),
		Metadata:      req.CustomerInfo.Metadata(),
		SuccessURL:    i.successURL,
		CancelURL:     i.cancelURL,
	})
	if err != nil {
		i.log.Error("create checkout session", "kind", "remote", "err", err)
		return Handle{}, &InitiationError{Err: err}
	}
	i.log.Info("checkout session created", "session_id", h.ID, "lines", len(items))
	return Handle{SessionID: h.ID, URL: h.URL}, nil
}

// UnitAmount converts a major-unit price to minor units, rounding half away from zero.
func UnitAmount(price decimal.Decimal) int64 {
	return price.Shift(2).Round(0).IntPart()
}

func toLineItems(lines []cart.Line) ([]payment.LineItem, decimal.Decimal, error) {
	items := make([]payment.LineItem, 0, len(lines))
	subtotal := decimal.Zero
	for n, l := range lines {
		switch {
		case strings.TrimSpace(l.Product.ID) == "":
			return nil, subtotal, fmt.Errorf("line %d: missing product id", n)
		case strings.TrimSpace(l.Product.Name) == "":
			return nil, subtotal, fmt.Errorf("line %d: missing product name", n)
		case l.Quantity < 1:
			return nil, subtotal, fmt.Errorf("line %d: quantity %d", n, l.Quantity)
		case l.Product.Price.IsNegative():
			return nil, subtotal, fmt.Errorf("line %d: negative price", n)
		}
		items = append(items, payment.LineItem{
			ProductID:  l.Product.ID,
			Name:       l.Product.Name,
			UnitAmount: UnitAmount(l.UnitPrice()),
			Quantity:   int64(l.Quantity),
			ImageURL:   l.Product.ImageURL,
		})
		subtotal = subtotal.Add(l.Total())
	}
	return items, subtotal, nil
}
