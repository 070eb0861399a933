// Package wishlist holds the per-session wishlist state shared by the
// storefront handlers. Unlike the cart, wishlist mutations are not
// optimistic: entry ids are assigned upstream and membership checks need
// them, so every successful write is followed by a re-fetch.
package wishlist

import (
	"context"
	"sync"

	"github.com/kaidenz/storefront-gateway/internal/upstream"
	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
)

// Backend is the slice of the upstream proxy the store depends on.
type Backend interface {
	FetchWishlist(ctx context.Context, creds upstream.Credentials) ([]upstream.WishlistItem, upstream.Renewed, error)
	AddWishlistItem(ctx context.Context, creds upstream.Credentials, productID string) (upstream.Renewed, error)
	RemoveWishlistItem(ctx context.Context, creds upstream.Credentials, entryID string) (upstream.Renewed, error)
}

type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseLoading  Phase = "loading"
	PhaseMutating Phase = "mutating"
	PhaseError    Phase = "error"
)

// Store caches one session's wishlist between requests.
type Store struct {
	backend Backend

	mu       sync.Mutex
	items    []upstream.WishlistItem
	loaded   bool
	loading  bool
	inflight int
	lastErr  error
}

func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

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

func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Items returns a copy of the cached entries.
func (s *Store) Items() []upstream.WishlistItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]upstream.WishlistItem, len(s.items))
	copy(out, s.items)
	return out
}

// Contains reports whether the product is on the wishlist. Lists stay
// small, so a linear scan is fine.
func (s *Store) Contains(productID string) bool {
	return s.EntryID(productID) != ""
}

// EntryID returns the backend-assigned entry id for a product, or "" when
// the product is not listed. Removal goes by entry id, not product id.
func (s *Store) EntryID(productID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].Product.ID == productID {
			return s.items[i].EntryID
		}
	}
	return ""
}

// Load fetches the wishlist once; later calls reuse the cached copy.
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
	items, renewed, err := s.backend.FetchWishlist(ctx, creds)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = err
		return renewed, err
	}
	s.items = items
	s.loaded = true
	s.lastErr = nil
	return renewed, nil
}

// Add puts a product on the wishlist. Adding a product that is already
// listed is a no-op that skips the backend entirely.
func (s *Store) Add(ctx context.Context, creds upstream.Credentials, productID string) (upstream.Renewed, error) {
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if s.Contains(productID) {
		return nil, nil
	}

	s.beginMutation()
	renewed, err := s.backend.AddWishlistItem(ctx, creds, productID)
	if err != nil {
		s.endMutation(err)
		return renewed, err
	}

	more, fetchErr := s.fetchAfterWrite(ctx, creds)
	s.endMutation(fetchErr)
	return renewed.Merge(more), fetchErr
}

// RemoveProduct drops a product by looking up its entry id locally first.
func (s *Store) RemoveProduct(ctx context.Context, creds upstream.Credentials, productID string) (upstream.Renewed, error) {
	entryID := s.EntryID(productID)
	if entryID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product is not on the wishlist")
	}
	return s.Remove(ctx, creds, entryID)
}

// Remove drops an entry by its backend-assigned id and re-fetches.
func (s *Store) Remove(ctx context.Context, creds upstream.Credentials, entryID string) (upstream.Renewed, error) {
	if entryID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entry id is required")
	}

	s.beginMutation()
	renewed, err := s.backend.RemoveWishlistItem(ctx, creds, entryID)
	if err != nil {
		s.endMutation(err)
		return renewed, err
	}

	more, fetchErr := s.fetchAfterWrite(ctx, creds)
	s.endMutation(fetchErr)
	return renewed.Merge(more), fetchErr
}

func (s *Store) fetchAfterWrite(ctx context.Context, creds upstream.Credentials) (upstream.Renewed, error) {
	items, renewed, err := s.backend.FetchWishlist(ctx, creds)
	if err != nil {
		return renewed, err
	}
	s.mu.Lock()
	s.items = items
	s.loaded = true
	s.mu.Unlock()
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
