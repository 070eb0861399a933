// Package stripewebhook processes payment-provider callbacks. Deliveries
// are verified and deduplicated at the controller; the service here only
// dispatches on event type.
package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	"github.com/kaidenz/storefront-gateway/internal/checkout"
	"github.com/kaidenz/storefront-gateway/internal/upstream"
	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
	"github.com/kaidenz/storefront-gateway/pkg/logger"
)

// Backend is the slice of the store backend the webhook path needs. There
// is no browser session here, so calls are server-to-server.
type Backend interface {
	RecordOrder(ctx context.Context, creds upstream.Credentials, input upstream.RecordOrderInput) (upstream.Renewed, error)
	ClearCartForUser(ctx context.Context, userID string) error
}

type ServiceParams struct {
	Backend Backend
	Logger  *logger.Logger
}

type Service struct {
	backend Backend
	log     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Backend == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "backend client required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		backend: params.Backend,
		log:     params.Logger,
	}, nil
}

// HandleEvent dispatches a verified event. Unknown event types are
// acknowledged without action so the provider stops retrying them.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUpstreamMalformed, err, "decode checkout session event")
		}
		return s.completeCheckout(ctx, &session)
	case stripe.EventTypePaymentIntentSucceeded:
		s.log.Info(s.log.WithField(ctx, "payment_intent", event.GetObjectValue("id")), "payment succeeded")
		return nil
	case stripe.EventTypePaymentIntentPaymentFailed:
		s.log.Warn(s.log.WithField(ctx, "payment_intent", event.GetObjectValue("id")), "payment failed")
		return nil
	default:
		return nil
	}
}

// completeCheckout records the order and empties the buyer's cart. Both
// the redirect-back confirmation and this path may run for one payment;
// the backend dedupes orders on the payment reference, so replays and
// overlap are safe.
func (s *Service) completeCheckout(ctx context.Context, session *stripe.CheckoutSession) error {
	order := checkout.OrderFromSession(session)
	if _, err := s.backend.RecordOrder(ctx, upstream.Credentials{}, order); err != nil {
		return err
	}

	ctx = s.log.WithField(ctx, "payment_ref", order.PaymentRef)
	if order.UserID == "" {
		s.log.Info(ctx, "order recorded for anonymous checkout; cart clears on next confirm")
		return nil
	}
	if err := s.backend.ClearCartForUser(ctx, order.UserID); err != nil {
		// The order is recorded; an unswept cart self-corrects on the
		// buyer's next visit.
		s.log.Error(ctx, "clear cart after checkout", err)
		return nil
	}

	s.log.Info(ctx, "order recorded from webhook")
	return nil
}
