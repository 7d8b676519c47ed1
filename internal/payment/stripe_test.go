package payment

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80"
)

func TestToStripeParams(t *testing.T) {
	p := toStripeParams(SessionParams{
		LineItems: []LineItem{
			{ProductID: "hat", Name: "Hat", UnitAmount: 2000, Quantity: 2, ImageURL: "https://img/hat.png"},
			{Name: "Belt", UnitAmount: 500, Quantity: 1},
		},
		CustomerEmail: "a@b.c",
		Metadata:      map[string]string{"customer_name": "Ann"},
		SuccessURL:    "https://shop/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     "https://shop/cancel",
	})

	assert.Equal(t, string(stripe.CheckoutSessionModePayment), *p.Mode)
	require.Len(t, p.LineItems, 2)
	first := p.LineItems[0]
	assert.Equal(t, int64(2000), *first.PriceData.UnitAmount)
	assert.Equal(t, int64(2), *first.Quantity)
	assert.Equal(t, "usd", *first.PriceData.Currency)
	assert.Equal(t, "Hat", *first.PriceData.ProductData.Name)
	require.Len(t, first.PriceData.ProductData.Images, 1)
	assert.Equal(t, "hat", first.PriceData.ProductData.Metadata[MetaProductID])
	assert.Nil(t, p.LineItems[1].PriceData.ProductData.Images)
	assert.Equal(t, "a@b.c", *p.CustomerEmail)
	assert.Equal(t, "https://shop/cancel", *p.CancelURL)
	assert.Equal(t, "Ann", p.Metadata["customer_name"])
}

func TestFromStripeSession(t *testing.T) {
	cs := &stripe.CheckoutSession{
		ID:              "cs_1",
		Status:          stripe.CheckoutSessionStatusComplete,
		PaymentStatus:   stripe.CheckoutSessionPaymentStatusPaid,
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{Email: "a@b.c"},
		PaymentIntent:   &stripe.PaymentIntent{ID: "pi_1"},
		AmountSubtotal:  4500,
		AmountTotal:     5450,
		Metadata:        map[string]string{"customer_name": "Ann"},
		LineItems: &stripe.LineItemList{Data: []*stripe.LineItem{
			{
				Description: "Hat",
				Quantity:    2,
				AmountTotal: 4000,
				Price: &stripe.Price{Product: &stripe.Product{
					ID:       "prod_1",
					Metadata: map[string]string{MetaProductID: "hat"},
				}},
			},
			{Description: "Belt", Quantity: 1, AmountTotal: 500, Price: &stripe.Price{Product: &stripe.Product{ID: "prod_2"}}},
			{Description: "Loose", Quantity: 1, AmountTotal: 100},
		}},
	}

	s := fromStripeSession(cs)

	assert.True(t, s.Completed())
	assert.Equal(t, "a@b.c", s.CustomerEmail)
	assert.Equal(t, "pi_1", s.PaymentIntentID)
	assert.Equal(t, int64(4500), s.AmountSubtotal)
	require.Len(t, s.Lines, 3)
	assert.Equal(t, "hat", s.Lines[0].ProductID)
	assert.Equal(t, "prod_2", s.Lines[1].ProductID)
	assert.Equal(t, "", s.Lines[2].ProductID)
}

func TestSessionCompleted(t *testing.T) {
	assert.False(t, (&Session{Status: StatusOpen, PaymentStatus: PaymentUnpaid}).Completed())
	assert.False(t, (&Session{Status: StatusComplete, PaymentStatus: PaymentUnpaid}).Completed())
	assert.True(t, (&Session{Status: StatusComplete, PaymentStatus: PaymentNoPaymentRequired}).Completed())
}

func TestClassify(t *testing.T) {
	ctx := context.Background()

	err := classify(ctx, &stripe.Error{HTTPStatusCode: http.StatusNotFound, Msg: "No such checkout.session"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	err = classify(ctx, &stripe.Error{HTTPStatusCode: http.StatusBadGateway})
	assert.ErrorIs(t, err, ErrUnavailable)

	err = classify(ctx, &stripe.Error{HTTPStatusCode: http.StatusBadRequest})
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrSessionNotFound)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	err = classify(cctx, errors.New("dial tcp: i/o timeout"))
	assert.ErrorIs(t, err, ErrUnavailable)
}
