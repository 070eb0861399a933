package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/kaidenz/storefront-gateway/internal/cart"
	"github.com/kaidenz/storefront-gateway/internal/upstream"
	"github.com/kaidenz/storefront-gateway/pkg/config"
	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
)

type stubStripeClient struct {
	created   []*stripe.CheckoutSessionParams
	createRes *stripe.CheckoutSession
	createErr error

	gotID  string
	getRes *stripe.CheckoutSession
	getErr error
}

func (s *stubStripeClient) Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.created = append(s.created, params)
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.createRes, nil
}

func (s *stubStripeClient) Get(ctx context.Context, id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.gotID = id
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.getRes, nil
}

type stubBackend struct {
	recorded  []upstream.RecordOrderInput
	recordErr error
	user      upstream.User
	userErr   error
}

func (s *stubBackend) RecordOrder(ctx context.Context, creds upstream.Credentials, input upstream.RecordOrderInput) (upstream.Renewed, error) {
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	s.recorded = append(s.recorded, input)
	return nil, nil
}

func (s *stubBackend) FetchUser(ctx context.Context, creds upstream.Credentials) (upstream.User, upstream.Renewed, error) {
	return s.user, nil, s.userErr
}

type stubCart struct {
	snap    cart.Snapshot
	loadErr error
	cleared int
}

func (s *stubCart) Load(ctx context.Context, creds upstream.Credentials) (upstream.Renewed, error) {
	return nil, s.loadErr
}

func (s *stubCart) Snapshot() cart.Snapshot { return s.snap }

func (s *stubCart) Clear(ctx context.Context, creds upstream.Credentials) (upstream.Renewed, error) {
	s.cleared++
	return nil, nil
}

func testConfig() config.StripeConfig {
	return config.StripeConfig{
		Currency:   "usd",
		SuccessURL: "http://localhost:3000/checkout/confirm?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "http://localhost:3000/checkout",
	}
}

func cartWith(items ...upstream.CartItem) cart.Snapshot {
	return cart.NewSnapshot(items)
}

func shipping() ShippingInput {
	return ShippingInput{FirstName: "Ada", LastName: "Kaiden", Email: "ada@example.com"}
}

func TestCreateSessionRejectsEmptyCartWithoutProviderCall(t *testing.T) {
	stripeStub := &stubStripeClient{}
	svc, err := NewService(ServiceParams{
		Stripe:  stripeStub,
		Backend: &stubBackend{userErr: errors.New("anonymous")},
		Config:  testConfig(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, _, err = svc.CreateSession(context.Background(), upstream.Credentials{}, &stubCart{}, shipping())
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(stripeStub.created) != 0 {
		t.Fatalf("provider must not be contacted for an empty cart")
	}
}

func TestCreateSessionRejectsIncompleteShipping(t *testing.T) {
	stripeStub := &stubStripeClient{}
	svc, _ := NewService(ServiceParams{
		Stripe:  stripeStub,
		Backend: &stubBackend{},
		Config:  testConfig(),
	})

	bad := []ShippingInput{
		{LastName: "Kaiden", Email: "a@b.com"},
		{FirstName: "Ada", Email: "a@b.com"},
		{FirstName: "Ada", LastName: "Kaiden", Email: "not-an-email"},
	}
	for _, in := range bad {
		_, _, err := svc.CreateSession(context.Background(), upstream.Credentials{}, &stubCart{}, in)
		if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %+v, got %v", in, err)
		}
	}
	if len(stripeStub.created) != 0 {
		t.Fatalf("provider must not be contacted before the form validates")
	}
}

func TestCreateSessionBuildsLineItemsInCents(t *testing.T) {
	stripeStub := &stubStripeClient{
		createRes: &stripe.CheckoutSession{ID: "cs_1", URL: "https://pay.example/cs_1"},
	}
	backend := &stubBackend{user: upstream.User{ID: "u-9", Email: "ada@example.com"}}
	svc, _ := NewService(ServiceParams{Stripe: stripeStub, Backend: backend, Config: testConfig()})

	snap := cartWith(
		upstream.CartItem{
			Product:  upstream.ProductSummary{ID: "p1", Name: "Linen Shirt", UnitPrice: decimal.RequireFromString("49.90")},
			Quantity: 2,
		},
		upstream.CartItem{
			Product:  upstream.ProductSummary{ID: "p2", Name: "Wool Scarf", UnitPrice: decimal.RequireFromString("19.05")},
			Quantity: 1,
		},
	)
	redirect, _, err := svc.CreateSession(context.Background(), upstream.Credentials{}, &stubCart{snap: snap}, shipping())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if redirect.SessionID != "cs_1" || redirect.URL != "https://pay.example/cs_1" {
		t.Fatalf("unexpected redirect %+v", redirect)
	}

	params := stripeStub.created[0]
	if len(params.LineItems) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(params.LineItems))
	}
	if got := *params.LineItems[0].PriceData.UnitAmount; got != 4990 {
		t.Fatalf("expected 4990 cents, got %d", got)
	}
	if got := *params.LineItems[1].PriceData.UnitAmount; got != 1905 {
		t.Fatalf("expected 1905 cents, got %d", got)
	}
	if got := *params.LineItems[0].Quantity; got != 2 {
		t.Fatalf("expected quantity 2, got %d", got)
	}
	if params.Metadata["total"] != "118.85" {
		t.Fatalf("expected metadata total 118.85, got %q", params.Metadata["total"])
	}
	if params.Metadata["item_count"] != "3" {
		t.Fatalf("expected metadata item_count 3, got %q", params.Metadata["item_count"])
	}
	if params.Metadata["user_id"] != "u-9" {
		t.Fatalf("expected resolved user id in metadata, got %q", params.Metadata["user_id"])
	}
}

func TestCreateSessionProviderRejectionIsUpstreamError(t *testing.T) {
	stripeStub := &stubStripeClient{createErr: errors.New("provider down")}
	svc, _ := NewService(ServiceParams{Stripe: stripeStub, Backend: &stubBackend{}, Config: testConfig()})

	snap := cartWith(upstream.CartItem{
		Product:  upstream.ProductSummary{ID: "p1", Name: "Shirt", UnitPrice: decimal.NewFromInt(10)},
		Quantity: 1,
	})
	_, _, err := svc.CreateSession(context.Background(), upstream.Credentials{}, &stubCart{snap: snap}, shipping())
	if pkgerrors.CodeOf(err) != pkgerrors.CodeUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestConfirmRecordsOrderAndClearsCart(t *testing.T) {
	stripeStub := &stubStripeClient{
		getRes: &stripe.CheckoutSession{
			ID:            "cs_paid",
			PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
			Metadata: map[string]string{
				"total":               "118.85",
				"item_count":          "3",
				"user_id":             "u-9",
				"shipping_first_name": "Ada",
				"shipping_email":      "ada@example.com",
			},
		},
	}
	backend := &stubBackend{}
	sessionCart := &stubCart{}
	svc, _ := NewService(ServiceParams{Stripe: stripeStub, Backend: backend, Config: testConfig()})

	conf, _, err := svc.Confirm(context.Background(), upstream.Credentials{}, sessionCart, "cs_paid")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if conf.PaymentRef != "cs_paid" || conf.ItemCount != 3 || !conf.Total.Equal(decimal.RequireFromString("118.85")) {
		t.Fatalf("unexpected confirmation %+v", conf)
	}
	if len(backend.recorded) != 1 {
		t.Fatalf("expected one recorded order, got %d", len(backend.recorded))
	}
	order := backend.recorded[0]
	if order.PaymentRef != "cs_paid" || order.UserID != "u-9" || order.Shipping["firstName"] != "Ada" {
		t.Fatalf("unexpected order %+v", order)
	}
	if sessionCart.cleared != 1 {
		t.Fatalf("expected cart cleared once, got %d", sessionCart.cleared)
	}
}

func TestConfirmRejectsUnpaidSession(t *testing.T) {
	stripeStub := &stubStripeClient{
		getRes: &stripe.CheckoutSession{ID: "cs_open", PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid},
	}
	backend := &stubBackend{}
	sessionCart := &stubCart{}
	svc, _ := NewService(ServiceParams{Stripe: stripeStub, Backend: backend, Config: testConfig()})

	_, _, err := svc.Confirm(context.Background(), upstream.Credentials{}, sessionCart, "cs_open")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(backend.recorded) != 0 || sessionCart.cleared != 0 {
		t.Fatalf("unpaid session must not record or clear anything")
	}
}
