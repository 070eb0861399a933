package cart

import (
	"context"
	"sync"

	"github.com/kaidenz/storefront-gateway/internal/upstream"
	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
)

// Backend is the slice of the upstream proxy the cart store drives.
type Backend interface {
	FetchCart(ctx context.Context, creds upstream.Credentials) ([]upstream.CartItem, upstream.Renewed, error)
	AddCartItem(ctx context.Context, creds upstream.Credentials, productID, color string, quantity int) (upstream.Renewed, error)
	UpdateCartItem(ctx context.Context, creds upstream.Credentials, itemID string, quantity int) (upstream.Renewed, error)
	RemoveCartItem(ctx context.Context, creds upstream.Credentials, itemID string) (upstream.Renewed, error)
	ClearCart(ctx context.Context, creds upstream.Credentials) (upstream.Renewed, error)
}

// Phase is the store's lifecycle state.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseLoading  Phase = "loading"
	PhaseMutating Phase = "mutating"
	PhaseError    Phase = "error"
)

const reconcileAttempts = 3

// Store holds one browser session's cart. The backend owns the durable
// record; this copy exists so reads are instant and mutations apply
// optimistically, reconciling by full re-fetch whenever a mutation fails.
type Store struct {
	backend Backend

	mu       sync.Mutex
	items    []upstream.CartItem
	loaded   bool
	loading  bool
	inflight int
	lastErr  error
	// writeSeq increments on every local apply so a reconciliation fetch
	// can tell whether a newer optimistic write landed while it was in
	// flight.
	writeSeq uint64
}

// NewStore builds an empty store bound to the given backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Phase reports the current lifecycle state.
func (s *Store) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.loading:
		return PhaseLoading
	case s.inflight > 0:
		return PhaseMutating
	case s.lastErr != nil:
		return PhaseError
	default:
		return PhaseIdle
	}
}

// LastError returns the most recent operation failure, if any.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Items returns a copy of the current item list.
func (s *Store) Items() []upstream.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]upstream.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Snapshot recomputes the derived aggregates from the item list. Count and
// total are never cached; they are always a pure function of the current
// items.
func (s *Store) Snapshot() Snapshot {
	return NewSnapshot(s.Items())
}

// Load fetches the authoritative list if the store has not been populated
// yet. Loading always returns to idle, success or failure.
func (s *Store) Load(ctx context.Context, creds upstream.Credentials) (upstream.Renewed, error) {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return nil, nil
	}
	s.loading = true
	s.mu.Unlock()

	return s.fetchAndApply(ctx, creds)
}

// Refresh always re-fetches, replacing the local copy.
func (s *Store) Refresh(ctx context.Context, creds upstream.Credentials) (upstream.Renewed, error) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	return s.fetchAndApply(ctx, creds)
}

func (s *Store) fetchAndApply(ctx context.Context, creds upstream.Credentials) (upstream.Renewed, error) {
	items, renewed, err := s.backend.FetchCart(ctx, creds)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = err
		return renewed, err
	}
	s.applyLocked(items)
	s.lastErr = nil
	return renewed, nil
}

// Add writes a new row through the backend and re-fetches. Adds are not
// optimistic: the row id is assigned upstream, so there is nothing valid to
// patch in locally.
func (s *Store) Add(ctx context.Context, creds upstream.Credentials, productID, color string, quantity int) (upstream.Renewed, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}

	s.beginMutation()
	renewed, err := s.backend.AddCartItem(ctx, creds, productID, color, quantity)
	if err != nil {
		s.endMutation(err)
		return renewed, err
	}

	more, fetchErr := s.fetchAfterWrite(ctx, creds)
	s.endMutation(fetchErr)
	return renewed.Merge(more), fetchErr
}

// UpdateQuantity optimistically sets an item's quantity, then confirms with
// the backend. On failure the optimistic value is discarded by re-fetching
// the whole list. A non-positive quantity is rejected: deciding that "zero
// means remove" belongs to the caller, not the store.
func (s *Store) UpdateQuantity(ctx context.Context, creds upstream.Credentials, itemID string, quantity int) (upstream.Renewed, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer; remove the item instead")
	}

	s.mu.Lock()
	idx := s.indexOfLocked(itemID)
	if idx < 0 {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	s.items[idx].Quantity = quantity
	s.writeSeq++
	s.inflight++
	s.mu.Unlock()

	renewed, err := s.backend.UpdateCartItem(ctx, creds, itemID, quantity)
	if err != nil {
		more := s.reconcile(ctx, creds)
		s.endMutation(err)
		return renewed.Merge(more), err
	}

	s.endMutation(nil)
	return renewed, nil
}

// Remove optimistically drops an item, then confirms with the backend,
// reconciling on failure.
func (s *Store) Remove(ctx context.Context, creds upstream.Credentials, itemID string) (upstream.Renewed, error) {
	s.mu.Lock()
	idx := s.indexOfLocked(itemID)
	if idx < 0 {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.writeSeq++
	s.inflight++
	s.mu.Unlock()

	renewed, err := s.backend.RemoveCartItem(ctx, creds, itemID)
	if err != nil {
		more := s.reconcile(ctx, creds)
		s.endMutation(err)
		return renewed.Merge(more), err
	}

	s.endMutation(nil)
	return renewed, nil
}

// Clear empties the cart through the backend, then locally. Used after a
// confirmed payment.
func (s *Store) Clear(ctx context.Context, creds upstream.Credentials) (upstream.Renewed, error) {
	s.beginMutation()
	renewed, err := s.backend.ClearCart(ctx, creds)
	if err != nil {
		more := s.reconcile(ctx, creds)
		s.endMutation(err)
		return renewed.Merge(more), err
	}

	s.mu.Lock()
	s.applyLocked(nil)
	s.mu.Unlock()
	s.endMutation(nil)
	return renewed, nil
}

// reconcile discards speculative local state by re-fetching the
// authoritative list. If another local write lands while the fetch is in
// flight, the fetch result is stale and the fetch is retried, so a
// reconciliation never clobbers a newer optimistic update.
func (s *Store) reconcile(ctx context.Context, creds upstream.Credentials) upstream.Renewed {
	var renewed upstream.Renewed
	for attempt := 0; attempt < reconcileAttempts; attempt++ {
		s.mu.Lock()
		seq := s.writeSeq
		s.mu.Unlock()

		items, more, err := s.backend.FetchCart(ctx, creds)
		renewed = renewed.Merge(more)
		if err != nil {
			// Keep the optimistic value rather than blanking the cart; the
			// next successful operation re-fetches anyway.
			return renewed
		}

		s.mu.Lock()
		if s.writeSeq != seq {
			s.mu.Unlock()
			continue
		}
		s.applyLocked(items)
		s.mu.Unlock()
		return renewed
	}
	return renewed
}

// fetchAfterWrite pulls backend truth after a non-optimistic write, with
// the same write-sequence recheck as reconcile: a list fetched before a
// concurrent optimistic write landed is stale and must not be applied.
func (s *Store) fetchAfterWrite(ctx context.Context, creds upstream.Credentials) (upstream.Renewed, error) {
	var renewed upstream.Renewed
	for attempt := 0; attempt < reconcileAttempts; attempt++ {
		s.mu.Lock()
		seq := s.writeSeq
		s.mu.Unlock()

		items, more, err := s.backend.FetchCart(ctx, creds)
		renewed = renewed.Merge(more)
		if err != nil {
			return renewed, err
		}

		s.mu.Lock()
		if s.writeSeq != seq {
			s.mu.Unlock()
			continue
		}
		s.applyLocked(items)
		s.mu.Unlock()
		return renewed, nil
	}
	return renewed, nil
}

func (s *Store) beginMutation() {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
}

func (s *Store) endMutation(err error) {
	s.mu.Lock()
	s.inflight--
	s.lastErr = err
	s.mu.Unlock()
}

// applyLocked replaces the item list. Callers hold s.mu.
func (s *Store) applyLocked(items []upstream.CartItem) {
	s.items = items
	s.loaded = true
	s.writeSeq++
}

func (s *Store) indexOfLocked(itemID string) int {
	for i, item := range s.items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}
