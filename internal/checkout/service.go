// Package checkout drives the hosted-payment flow: it turns a session's
// cart into a Stripe checkout session and, after a successful redirect
// back, records the order with the store backend and clears the cart.
package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/kaidenz/storefront-gateway/internal/cart"
	"github.com/kaidenz/storefront-gateway/internal/upstream"
	"github.com/kaidenz/storefront-gateway/pkg/config"
	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
)

// Cart is the slice of the session cart store the service depends on.
type Cart interface {
	Load(ctx context.Context, creds upstream.Credentials) (upstream.Renewed, error)
	Snapshot() cart.Snapshot
	Clear(ctx context.Context, creds upstream.Credentials) (upstream.Renewed, error)
}

// Backend records completed orders with the store backend.
type Backend interface {
	RecordOrder(ctx context.Context, creds upstream.Credentials, input upstream.RecordOrderInput) (upstream.Renewed, error)
	FetchUser(ctx context.Context, creds upstream.Credentials) (upstream.User, upstream.Renewed, error)
}

// ShippingInput is the address form captured before handing off to the
// payment provider. It travels to the provider as session metadata only;
// the backend receives it when the order is recorded.
type ShippingInput struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"  validate:"required"`
	Email     string `json:"email"     validate:"required,email"`
	Address   string `json:"address"   validate:"omitempty,max=200"`
	City      string `json:"city"      validate:"omitempty,max=100"`
	Zip       string `json:"zip"       validate:"omitempty,max=20"`
	Phone     string `json:"phone"     validate:"omitempty,e164"`
}

// Redirect is what the browser needs to hand off to the provider.
type Redirect struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// Confirmation summarizes a completed payment for the order-confirmation view.
type Confirmation struct {
	PaymentRef string          `json:"paymentRef"`
	Total      decimal.Decimal `json:"total"`
	ItemCount  int             `json:"itemCount"`
	Email      string          `json:"email,omitempty"`
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Stripe  StripeCheckoutClient
	Backend Backend
	Config  config.StripeConfig
}

// Service defines the checkout surface.
type Service interface {
	CreateSession(ctx context.Context, creds upstream.Credentials, sessionCart Cart, shipping ShippingInput) (Redirect, upstream.Renewed, error)
	Confirm(ctx context.Context, creds upstream.Credentials, sessionCart Cart, checkoutSessionID string) (Confirmation, upstream.Renewed, error)
}

type service struct {
	stripe  StripeCheckoutClient
	backend Backend
	cfg     config.StripeConfig
}

// NewService builds a checkout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Stripe == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	if params.Backend == nil {
		return nil, fmt.Errorf("backend client required")
	}
	if strings.TrimSpace(params.Config.SuccessURL) == "" || strings.TrimSpace(params.Config.CancelURL) == "" {
		return nil, fmt.Errorf("success and cancel urls required")
	}
	return &service{
		stripe:  params.Stripe,
		backend: params.Backend,
		cfg:     params.Config,
	}, nil
}

// CreateSession validates the cart and shipping form, then opens a hosted
// checkout session with one line item per cart row. An empty cart is
// rejected before the provider is contacted.
func (s *service) CreateSession(ctx context.Context, creds upstream.Credentials, sessionCart Cart, shipping ShippingInput) (Redirect, upstream.Renewed, error) {
	if err := shipping.check(); err != nil {
		return Redirect{}, nil, err
	}

	renewed, err := sessionCart.Load(ctx, creds)
	if err != nil {
		return Redirect{}, renewed, err
	}

	snap := sessionCart.Snapshot()
	if snap.Empty() {
		return Redirect{}, renewed, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
	}
	for _, item := range snap.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(s.cfg.Currency),
				UnitAmount: stripe.Int64(toCents(item.Product.UnitPrice)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Product.Name),
				},
			},
		})
	}

	params.AddMetadata("total", snap.Total.StringFixed(2))
	params.AddMetadata("item_count", fmt.Sprintf("%d", snap.Count))
	params.AddMetadata("shipping_first_name", shipping.FirstName)
	params.AddMetadata("shipping_last_name", shipping.LastName)
	params.AddMetadata("shipping_email", shipping.Email)
	params.AddMetadata("shipping_address", shipping.Address)
	params.AddMetadata("shipping_city", shipping.City)
	params.AddMetadata("shipping_zip", shipping.Zip)
	params.AddMetadata("shipping_phone", shipping.Phone)

	// Best effort: the session may be anonymous, and checkout still works.
	if user, more, userErr := s.backend.FetchUser(ctx, creds); userErr == nil {
		renewed = renewed.Merge(more)
		params.AddMetadata("user_id", user.ID)
		if params.CustomerEmail == nil && user.Email != "" {
			params.CustomerEmail = stripe.String(user.Email)
		}
	}

	checkoutSession, err := s.stripe.Create(ctx, params)
	if err != nil {
		return Redirect{}, renewed, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "create checkout session")
	}

	return Redirect{SessionID: checkoutSession.ID, URL: checkoutSession.URL}, renewed, nil
}

// Confirm handles the redirect back from the provider: it verifies the
// payment settled, records the order with the backend, and empties the
// cart. The backend dedupes on the payment reference, so running after the
// webhook already handled the session is harmless.
func (s *service) Confirm(ctx context.Context, creds upstream.Credentials, sessionCart Cart, checkoutSessionID string) (Confirmation, upstream.Renewed, error) {
	if strings.TrimSpace(checkoutSessionID) == "" {
		return Confirmation{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session id is required")
	}

	checkoutSession, err := s.stripe.Get(ctx, checkoutSessionID, nil)
	if err != nil {
		return Confirmation{}, nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "retrieve checkout session")
	}
	if checkoutSession.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return Confirmation{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "payment has not completed")
	}

	order := OrderFromSession(checkoutSession)
	renewed, err := s.backend.RecordOrder(ctx, creds, order)
	if err != nil {
		return Confirmation{}, renewed, err
	}

	more, clearErr := sessionCart.Clear(ctx, creds)
	renewed = renewed.Merge(more)
	if clearErr != nil {
		// The order is safe; the cart converges on the next fetch.
		return Confirmation{}, renewed, clearErr
	}

	return Confirmation{
		PaymentRef: order.PaymentRef,
		Total:      order.Total,
		ItemCount:  order.ItemCount,
		Email:      checkoutSession.Metadata["shipping_email"],
	}, renewed, nil
}

// OrderFromSession rebuilds the order the backend should persist from a
// completed checkout session's metadata. Shared with the webhook handler so
// both completion paths record identical orders.
func OrderFromSession(checkoutSession *stripe.CheckoutSession) upstream.RecordOrderInput {
	meta := checkoutSession.Metadata
	total, err := decimal.NewFromString(meta["total"])
	if err != nil {
		total = decimal.NewFromInt(checkoutSession.AmountTotal).Shift(-2)
	}
	count := 0
	fmt.Sscanf(meta["item_count"], "%d", &count)

	shipping := make(map[string]string)
	for metaKey, field := range map[string]string{
		"shipping_first_name": "firstName",
		"shipping_last_name":  "lastName",
		"shipping_email":      "email",
		"shipping_address":    "address",
		"shipping_city":       "city",
		"shipping_zip":        "zip",
		"shipping_phone":      "phone",
	} {
		if v := meta[metaKey]; v != "" {
			shipping[field] = v
		}
	}

	return upstream.RecordOrderInput{
		PaymentRef: checkoutSession.ID,
		UserID:     meta["user_id"],
		Total:      total,
		ItemCount:  count,
		Shipping:   shipping,
	}
}

func (in ShippingInput) check() error {
	if strings.TrimSpace(in.FirstName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "first name is required")
	}
	if strings.TrimSpace(in.LastName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "last name is required")
	}
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	return nil
}

func toCents(price decimal.Decimal) int64 {
	return price.Shift(2).Round(0).IntPart()
}
