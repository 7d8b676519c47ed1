package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
)

// MetaProductID carries our catalog id on the processor's ad-hoc product.
const MetaProductID = "product_id"

const currency = "usd"

// Stripe implements Processor on the Stripe Checkout Sessions API.
type Stripe struct {
	sessions *session.Client
}

func NewStripe(secretKey string) *Stripe {
	return &Stripe{sessions: &session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey}}
}

func (s *Stripe) CreateCheckoutSession(ctx context.Context, p SessionParams) (SessionHandle, error) {
	params := toStripeParams(p)
	params.Context = ctx
	cs, err := s.sessions.New(params)
	if err != nil {
		return SessionHandle{}, classify(ctx, err)
	}
	return SessionHandle{ID: cs.ID, URL: cs.URL}, nil
}

func (s *Stripe) RetrieveSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")
	params.AddExpand("line_items.data.price.product")
	cs, err := s.sessions.Get(id, params)
	if err != nil {
		return nil, classify(ctx, err)
	}
	return fromStripeSession(cs), nil
}

func toStripeParams(p SessionParams) *stripe.CheckoutSessionParams {
	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(p.LineItems))
	for _, li := range p.LineItems {
		pd := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(li.Name),
		}
		if li.ImageURL != "" {
			pd.Images = []*string{stripe.String(li.ImageURL)}
		}
		if li.ProductID != "" {
			pd.Metadata = map[string]string{MetaProductID: li.ProductID}
		}
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				UnitAmount:  stripe.Int64(li.UnitAmount),
				ProductData: pd,
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  items,
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}

func fromStripeSession(cs *stripe.CheckoutSession) *Session {
	out := &Session{
		ID:             cs.ID,
		Status:         string(cs.Status),
		PaymentStatus:  string(cs.PaymentStatus),
		CustomerEmail:  cs.CustomerEmail,
		AmountSubtotal: cs.AmountSubtotal,
		AmountTotal:    cs.AmountTotal,
		Metadata:       cs.Metadata,
	}
	if out.CustomerEmail == "" && cs.CustomerDetails != nil {
		out.CustomerEmail = cs.CustomerDetails.Email
	}
	if cs.PaymentIntent != nil {
		out.PaymentIntentID = cs.PaymentIntent.ID
	}
	if cs.LineItems != nil {
		for _, li := range cs.LineItems.Data {
			out.Lines = append(out.Lines, SessionLine{
				ProductID:   productID(li),
				Description: li.Description,
				Quantity:    li.Quantity,
				AmountTotal: li.AmountTotal,
			})
		}
	}
	return out
}

// productID prefers the catalog id we attached at creation; for products
// created elsewhere the processor's own id is all there is.
func productID(li *stripe.LineItem) string {
	if li.Price == nil || li.Price.Product == nil {
		return ""
	}
	if id := li.Price.Product.Metadata[MetaProductID]; id != "" {
		return id
	}
	return li.Price.Product.ID
}

func classify(ctx context.Context, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		if se.HTTPStatusCode == http.StatusNotFound || se.Code == stripe.ErrorCodeResourceMissing {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, se.Msg)
		}
		if se.HTTPStatusCode >= 500 || se.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return fmt.Errorf("stripe: %w", err)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
