package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/kaidenz/storefront-gateway/internal/upstream"
	"github.com/kaidenz/storefront-gateway/pkg/logger"
)

type stubBackend struct {
	recorded  []upstream.RecordOrderInput
	recordErr error
	cleared   []string
	clearErr  error
}

func (s *stubBackend) RecordOrder(ctx context.Context, creds upstream.Credentials, input upstream.RecordOrderInput) (upstream.Renewed, error) {
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	s.recorded = append(s.recorded, input)
	return nil, nil
}

func (s *stubBackend) ClearCartForUser(ctx context.Context, userID string) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	s.cleared = append(s.cleared, userID)
	return nil
}

func testService(t *testing.T, backend *stubBackend) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Backend: backend,
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return svc
}

func completedEvent(t *testing.T, session *stripe.CheckoutSession) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	return &stripe.Event{
		ID:   "evt_1",
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestService_CheckoutCompletedRecordsOrderAndClearsCart(t *testing.T) {
	backend := &stubBackend{}
	svc := testService(t, backend)

	event := completedEvent(t, &stripe.CheckoutSession{
		ID: "cs_done",
		Metadata: map[string]string{
			"total":      "42.50",
			"item_count": "2",
			"user_id":    "u-3",
		},
	})
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	if len(backend.recorded) != 1 {
		t.Fatalf("expected one recorded order, got %d", len(backend.recorded))
	}
	order := backend.recorded[0]
	if order.PaymentRef != "cs_done" || order.UserID != "u-3" || order.ItemCount != 2 {
		t.Fatalf("unexpected order %+v", order)
	}
	if len(backend.cleared) != 1 || backend.cleared[0] != "u-3" {
		t.Fatalf("expected cart cleared for u-3, got %v", backend.cleared)
	}
}

func TestService_CheckoutCompletedWithoutUserSkipsCartClear(t *testing.T) {
	backend := &stubBackend{}
	svc := testService(t, backend)

	event := completedEvent(t, &stripe.CheckoutSession{ID: "cs_anon"})
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(backend.recorded) != 1 {
		t.Fatalf("expected order recorded")
	}
	if len(backend.cleared) != 0 {
		t.Fatalf("no user id, nothing to clear")
	}
}

func TestService_RecordFailurePropagatesForRetry(t *testing.T) {
	backend := &stubBackend{recordErr: errors.New("backend down")}
	svc := testService(t, backend)

	event := completedEvent(t, &stripe.CheckoutSession{ID: "cs_fail", Metadata: map[string]string{"user_id": "u-3"}})
	if err := svc.HandleEvent(context.Background(), event); err == nil {
		t.Fatalf("expected error so the delivery is retried")
	}
	if len(backend.cleared) != 0 {
		t.Fatalf("cart must not be cleared when the order was not recorded")
	}
}

func TestService_ClearFailureDoesNotFailTheDelivery(t *testing.T) {
	backend := &stubBackend{clearErr: errors.New("backend down")}
	svc := testService(t, backend)

	event := completedEvent(t, &stripe.CheckoutSession{ID: "cs_done", Metadata: map[string]string{"user_id": "u-3"}})
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("order is safe; delivery must be acknowledged, got %v", err)
	}
}

func TestService_PaymentIntentEventsAreAcknowledged(t *testing.T) {
	backend := &stubBackend{}
	svc := testService(t, backend)

	for _, eventType := range []stripe.EventType{
		stripe.EventTypePaymentIntentSucceeded,
		stripe.EventTypePaymentIntentPaymentFailed,
		stripe.EventType("customer.created"),
	} {
		event := &stripe.Event{
			ID:   "evt_x",
			Type: eventType,
			Data: &stripe.EventData{Raw: json.RawMessage(`{"id":"pi_1"}`)},
		}
		if err := svc.HandleEvent(context.Background(), event); err != nil {
			t.Fatalf("event %s: %v", eventType, err)
		}
	}
	if len(backend.recorded) != 0 || len(backend.cleared) != 0 {
		t.Fatalf("informational events must not touch the backend")
	}
}

type stubIdempotencyStore struct {
	seen   map[string]bool
	setErr error
}

func (s *stubIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	return "", nil
}

func (s *stubIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.setErr != nil {
		return false, s.setErr
	}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *stubIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (s *stubIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.seen, key)
	}
	return nil
}

func TestIdempotencyGuardMarksOnce(t *testing.T) {
	guard, err := NewIdempotencyGuard(&stubIdempotencyStore{}, time.Hour, "stripe")
	if err != nil {
		t.Fatalf("setup guard: %v", err)
	}

	dup, err := guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil || dup {
		t.Fatalf("first delivery must not be a duplicate: dup=%v err=%v", dup, err)
	}
	dup, err = guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil || !dup {
		t.Fatalf("second delivery must be a duplicate: dup=%v err=%v", dup, err)
	}

	if err := guard.Delete(context.Background(), "evt_1"); err != nil {
		t.Fatalf("delete mark: %v", err)
	}
	dup, err = guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil || dup {
		t.Fatalf("unmarked delivery must be handled again: dup=%v err=%v", dup, err)
	}
}
