package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/cart"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	calls int
	got   payment.SessionParams
	err   error
	block bool
}

func (f *fakeProcessor) CreateCheckoutSession(ctx context.Context, p payment.SessionParams) (payment.SessionHandle, error) {
	f.calls++
	f.got = p
	if f.block {
		<-ctx.Done()
		return payment.SessionHandle{}, ctx.Err()
	}
	if f.err != nil {
		return payment.SessionHandle{}, f.err
	}
	return payment.SessionHandle{ID: "cs_test_1", URL: "https://pay.example/cs_test_1"}, nil
}

func (f *fakeProcessor) RetrieveSession(ctx context.Context, id string) (*payment.Session, error) {
	return nil, errors.New("not used")
}

func validDraft() Draft {
	return Draft{Email: "ann@example.com", Name: "Ann", Address: "1 Trail Rd", City: "Austin", State: "TX", Zip: "73301"}
}

func line(id, price string, qty int) cart.Line {
	return cart.Line{
		Product:  cart.Product{ID: id, Name: "Item " + id, Price: decimal.RequireFromString(price), Stock: 10},
		Quantity: qty,
	}
}

func newInitiator(p payment.Processor) *Initiator {
	return NewInitiator(p, Config{BaseURL: "https://shop.example/", Timeout: time.Second}, nil)
}

func TestInitiate_EmptyCartMakesNoRemoteCall(t *testing.T) {
	fp := &fakeProcessor{}

	_, err := newInitiator(fp).Initiate(context.Background(), Request{CustomerInfo: validDraft()})

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 0, fp.calls)
}

func TestInitiate_MissingFieldsMakesNoRemoteCall(t *testing.T) {
	fp := &fakeProcessor{}
	d := validDraft()
	d.City = "  "
	d.Zip = ""

	_, err := newInitiator(fp).Initiate(context.Background(), Request{
		CartItems:    []cart.Line{line("hat", "20.00", 1)},
		CustomerInfo: d,
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"city", "zip"}, verr.Fields)
	assert.Equal(t, 0, fp.calls)
}

func TestInitiate_BuildsSession(t *testing.T) {
	fp := &fakeProcessor{}
	items := []cart.Line{line("hat", "19.995", 2), line("belt", "5", 1)}

	h, err := newInitiator(fp).Initiate(context.Background(), Request{CartItems: items, CustomerInfo: validDraft()})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", h.SessionID)
	require.Len(t, fp.got.LineItems, 2)
	assert.Equal(t, int64(2000), fp.got.LineItems[0].UnitAmount)
	assert.Equal(t, int64(2), fp.got.LineItems[0].Quantity)
	assert.Equal(t, "hat", fp.got.LineItems[0].ProductID)
	assert.Equal(t, int64(500), fp.got.LineItems[1].UnitAmount)
	assert.Equal(t, "ann@example.com", fp.got.CustomerEmail)
	assert.Equal(t, "https://shop.example/success?session_id={CHECKOUT_SESSION_ID}", fp.got.SuccessURL)
	assert.Equal(t, "https://shop.example/cancel", fp.got.CancelURL)
	assert.Equal(t, map[string]string{
		MetaCustomerName:    "Ann",
		MetaShippingAddress: "1 Trail Rd",
		MetaShippingCity:    "Austin",
		MetaShippingState:   "TX",
		MetaShippingZip:     "73301",
	}, fp.got.Metadata)
}

func TestInitiate_ProcessorFailureIsGeneric(t *testing.T) {
	cause := errors.New("card network down")
	fp := &fakeProcessor{err: cause}

	_, err := newInitiator(fp).Initiate(context.Background(), Request{
		CartItems:    []cart.Line{line("hat", "20.00", 1)},
		CustomerInfo: validDraft(),
	})

	var ierr *InitiationError
	require.ErrorAs(t, err, &ierr)
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, err.Error(), "card network")
}

func TestInitiate_Timeout(t *testing.T) {
	fp := &fakeProcessor{block: true}
	in := NewInitiator(fp, Config{Timeout: 20 * time.Millisecond}, nil)

	_, err := in.Initiate(context.Background(), Request{
		CartItems:    []cart.Line{line("hat", "20.00", 1)},
		CustomerInfo: validDraft(),
	})

	var ierr *InitiationError
	require.ErrorAs(t, err, &ierr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInitiate_MalformedLine(t *testing.T) {
	fp := &fakeProcessor{}

	_, err := newInitiator(fp).Initiate(context.Background(), Request{
		CartItems:    []cart.Line{line("hat", "20.00", 0)},
		CustomerInfo: validDraft(),
	})

	var ierr *InitiationError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, 0, fp.calls)
}

func TestInitiate_LeavesCartUntouched(t *testing.T) {
	store := cart.New()
	store.Add(cart.Product{ID: "hat", Name: "Hat", Price: decimal.NewFromInt(20), Stock: 5}, 2)
	fp := &fakeProcessor{err: errors.New("down")}

	_, err := newInitiator(fp).Initiate(context.Background(), Request{CartItems: store.Lines(), CustomerInfo: validDraft()})
	require.Error(t, err)

	assert.Equal(t, 2, store.TotalItemCount())
}

func TestUnitAmount(t *testing.T) {
	cases := map[string]int64{"20": 2000, "19.99": 1999, "0.005": 1, "10.004": 1000}
	for in, want := range cases {
		assert.Equal(t, want, UnitAmount(decimal.RequireFromString(in)), in)
	}
}

func TestDraftMetadataRoundTrip(t *testing.T) {
	d := validDraft()

	back, ok := DraftFromMetadata(d.Email, d.Metadata())

	assert.True(t, ok)
	assert.Equal(t, d, back)

	_, ok = DraftFromMetadata("x@y.z", map[string]string{"other": "1"})
	assert.False(t, ok)
}
