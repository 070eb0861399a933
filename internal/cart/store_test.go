package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kaidenz/storefront-gateway/internal/upstream"
	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
)

// fakeBackend is an in-memory stand-in for the upstream proxy. Its rows are
// the authoritative cart; mutations apply to them unless told to fail.
type fakeBackend struct {
	mu         sync.Mutex
	rows       []upstream.CartItem
	failUpdate bool
	failRemove bool
	failAdd    bool

	fetchCalls  int
	updateCalls int
	removeCalls int
	addCalls    int

	onFetch func()
}

var errBackendDown = errors.New("backend down")

// FetchCart snapshots the rows before running the hook, so a hook that
// mutates state makes the returned list genuinely stale, the way a
// response already on the wire would be.
func (f *fakeBackend) FetchCart(ctx context.Context, creds upstream.Credentials) ([]upstream.CartItem, upstream.Renewed, error) {
	f.mu.Lock()
	f.fetchCalls++
	hook := f.onFetch
	f.onFetch = nil
	out := make([]upstream.CartItem, len(f.rows))
	copy(out, f.rows)
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil, nil
}

func (f *fakeBackend) AddCartItem(ctx context.Context, creds upstream.Credentials, productID, color string, quantity int) (upstream.Renewed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++
	if f.failAdd {
		return nil, errBackendDown
	}
	f.rows = append(f.rows, upstream.CartItem{
		ID:       "row-" + productID,
		Product:  upstream.ProductSummary{ID: productID, Name: productID, UnitPrice: decimal.NewFromInt(10)},
		Color:    color,
		Quantity: quantity,
	})
	return nil, nil
}

func (f *fakeBackend) UpdateCartItem(ctx context.Context, creds upstream.Credentials, itemID string, quantity int) (upstream.Renewed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.failUpdate {
		return nil, errBackendDown
	}
	for i := range f.rows {
		if f.rows[i].ID == itemID {
			f.rows[i].Quantity = quantity
			return nil, nil
		}
	}
	return nil, errBackendDown
}

func (f *fakeBackend) RemoveCartItem(ctx context.Context, creds upstream.Credentials, itemID string) (upstream.Renewed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls++
	if f.failRemove {
		return nil, errBackendDown
	}
	for i := range f.rows {
		if f.rows[i].ID == itemID {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil, nil
		}
	}
	return nil, errBackendDown
}

func (f *fakeBackend) ClearCart(ctx context.Context, creds upstream.Credentials) (upstream.Renewed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = nil
	return nil, nil
}

func (f *fakeBackend) snapshotRows() []upstream.CartItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]upstream.CartItem, len(f.rows))
	copy(out, f.rows)
	return out
}

func row(id string, price int64, qty int) upstream.CartItem {
	return upstream.CartItem{
		ID:       id,
		Product:  upstream.ProductSummary{ID: "p-" + id, Name: "item " + id, UnitPrice: decimal.NewFromInt(price)},
		Quantity: qty,
	}
}

func requireSnapshotInvariant(t *testing.T, s *Store) {
	t.Helper()
	snap := s.Snapshot()
	count := 0
	total := decimal.Zero
	for _, item := range snap.Items {
		count += item.Quantity
		total = total.Add(item.Product.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	require.Equal(t, count, snap.Count, "count must equal sum of quantities")
	require.True(t, total.Equal(snap.Total), "total must equal sum of line prices")
}

func TestOptimisticUpdateSticksOnSuccess(t *testing.T) {
	backend := &fakeBackend{rows: []upstream.CartItem{row("a", 20, 1), row("b", 5, 3)}}
	store := NewStore(backend)

	_, err := store.Load(context.Background(), upstream.Credentials{})
	require.NoError(t, err)
	fetchesAfterLoad := backend.fetchCalls

	_, err = store.UpdateQuantity(context.Background(), upstream.Credentials{}, "a", 4)
	require.NoError(t, err)

	require.Equal(t, fetchesAfterLoad, backend.fetchCalls, "successful update must not re-fetch")
	items := store.Items()
	require.Equal(t, 4, items[0].Quantity)
	require.Equal(t, PhaseIdle, store.Phase())
	requireSnapshotInvariant(t, store)
}

func TestFailedUpdateReconcilesToBackendTruth(t *testing.T) {
	backend := &fakeBackend{rows: []upstream.CartItem{row("a", 20, 1), row("b", 5, 3)}}
	store := NewStore(backend)

	_, err := store.Load(context.Background(), upstream.Credentials{})
	require.NoError(t, err)

	backend.failUpdate = true
	_, err = store.UpdateQuantity(context.Background(), upstream.Credentials{}, "a", 7)
	require.Error(t, err)

	// The displayed state must equal exactly what a fresh fetch returns.
	require.Equal(t, backend.snapshotRows(), store.Items())
	require.Equal(t, 1, store.Items()[0].Quantity, "optimistic value must be discarded")
	requireSnapshotInvariant(t, store)
}

func TestFailedRemoveRestoresItem(t *testing.T) {
	backend := &fakeBackend{rows: []upstream.CartItem{row("a", 20, 2)}}
	store := NewStore(backend)

	_, err := store.Load(context.Background(), upstream.Credentials{})
	require.NoError(t, err)

	backend.failRemove = true
	_, err = store.Remove(context.Background(), upstream.Credentials{}, "a")
	require.Error(t, err)

	require.Len(t, store.Items(), 1, "failed remove must restore the item via re-fetch")
	requireSnapshotInvariant(t, store)
}

func TestSnapshotInvariantAcrossMutationSequence(t *testing.T) {
	backend := &fakeBackend{rows: []upstream.CartItem{row("a", 20, 1), row("b", 5, 3), row("c", 13, 2)}}
	store := NewStore(backend)
	ctx := context.Background()

	_, err := store.Load(ctx, upstream.Credentials{})
	require.NoError(t, err)
	requireSnapshotInvariant(t, store)

	_, err = store.UpdateQuantity(ctx, upstream.Credentials{}, "b", 5)
	require.NoError(t, err)
	requireSnapshotInvariant(t, store)

	_, err = store.Remove(ctx, upstream.Credentials{}, "c")
	require.NoError(t, err)
	requireSnapshotInvariant(t, store)

	backend.failUpdate = true
	_, err = store.UpdateQuantity(ctx, upstream.Credentials{}, "a", 9)
	require.Error(t, err)
	requireSnapshotInvariant(t, store)

	backend.failUpdate = false
	_, err = store.UpdateQuantity(ctx, upstream.Credentials{}, "a", 2)
	require.NoError(t, err)
	requireSnapshotInvariant(t, store)

	snap := store.Snapshot()
	require.Equal(t, 7, snap.Count)
	require.True(t, decimal.NewFromInt(65).Equal(snap.Total), "expected 2*20 + 5*5 = 65, got %s", snap.Total)
}

func TestZeroQuantityUpdateIsRejectedNotConverted(t *testing.T) {
	backend := &fakeBackend{rows: []upstream.CartItem{row("a", 20, 1)}}
	store := NewStore(backend)

	_, err := store.Load(context.Background(), upstream.Credentials{})
	require.NoError(t, err)

	for _, qty := range []int{0, -1} {
		_, err = store.UpdateQuantity(context.Background(), upstream.Credentials{}, "a", qty)
		require.Error(t, err)
		require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	}

	require.Equal(t, 0, backend.updateCalls, "rejected update must not reach the backend")
	require.Equal(t, 0, backend.removeCalls, "the store must not convert update-to-zero into a remove")
	require.Len(t, store.Items(), 1)
}

func TestAddIsNotOptimistic(t *testing.T) {
	backend := &fakeBackend{}
	store := NewStore(backend)
	ctx := context.Background()

	_, err := store.Load(ctx, upstream.Credentials{})
	require.NoError(t, err)
	require.Empty(t, store.Items())

	fetchesBefore := backend.fetchCalls
	_, err = store.Add(ctx, upstream.Credentials{}, "p1", "black", 2)
	require.NoError(t, err)

	require.Equal(t, fetchesBefore+1, backend.fetchCalls, "successful add must re-fetch for the backend-assigned id")
	items := store.Items()
	require.Len(t, items, 1)
	require.Equal(t, "row-p1", items[0].ID)
	requireSnapshotInvariant(t, store)
}

func TestFailedAddLeavesLocalStateUntouched(t *testing.T) {
	backend := &fakeBackend{rows: []upstream.CartItem{row("a", 20, 1)}}
	store := NewStore(backend)
	ctx := context.Background()

	_, err := store.Load(ctx, upstream.Credentials{})
	require.NoError(t, err)

	backend.failAdd = true
	_, err = store.Add(ctx, upstream.Credentials{}, "p2", "red", 1)
	require.Error(t, err)

	require.Len(t, store.Items(), 1, "nothing was patched locally, nothing to roll back")
	require.Equal(t, PhaseError, store.Phase())
	require.Error(t, store.LastError())
}

func TestReconcileRetriesWhenNewerWriteLands(t *testing.T) {
	backend := &fakeBackend{rows: []upstream.CartItem{row("a", 20, 1), row("b", 5, 1)}}
	store := NewStore(backend)
	ctx := context.Background()

	_, err := store.Load(ctx, upstream.Credentials{})
	require.NoError(t, err)

	// While the failure-triggered reconciliation for "a" is fetching, a
	// concurrent optimistic update for "b" lands. The stale fetch must not
	// clobber it: reconcile re-fetches and ends at backend truth.
	backend.failUpdate = true
	backend.onFetch = func() {
		backend.mu.Lock()
		backend.failUpdate = false
		backend.mu.Unlock()
		_, updErr := store.UpdateQuantity(ctx, upstream.Credentials{}, "b", 6)
		require.NoError(t, updErr)
	}

	_, err = store.UpdateQuantity(ctx, upstream.Credentials{}, "a", 9)
	require.Error(t, err)

	require.Equal(t, backend.snapshotRows(), store.Items())
	for _, item := range store.Items() {
		if item.ID == "b" {
			require.Equal(t, 6, item.Quantity, "concurrent update must survive reconciliation")
		}
	}
	requireSnapshotInvariant(t, store)
}

func TestAddRefetchRetriesWhenNewerWriteLands(t *testing.T) {
	backend := &fakeBackend{rows: []upstream.CartItem{row("a", 20, 1)}}
	store := NewStore(backend)
	ctx := context.Background()

	_, err := store.Load(ctx, upstream.Credentials{})
	require.NoError(t, err)

	// While the post-add re-fetch is in flight, a concurrent optimistic
	// update for "a" lands. The re-fetch was snapshotted before the update,
	// so applying it unchecked would revert "a" to its old quantity.
	backend.onFetch = func() {
		_, updErr := store.UpdateQuantity(ctx, upstream.Credentials{}, "a", 5)
		require.NoError(t, updErr)
	}

	_, err = store.Add(ctx, upstream.Credentials{}, "p-new", "", 2)
	require.NoError(t, err)

	require.Equal(t, backend.snapshotRows(), store.Items())
	for _, item := range store.Items() {
		if item.ID == "a" {
			require.Equal(t, 5, item.Quantity, "concurrent update must survive the post-add re-fetch")
		}
	}
	requireSnapshotInvariant(t, store)
}

func TestPhaseTransitionsOnLoad(t *testing.T) {
	backend := &fakeBackend{rows: []upstream.CartItem{row("a", 20, 1)}}
	store := NewStore(backend)

	require.Equal(t, PhaseIdle, store.Phase())
	_, err := store.Load(context.Background(), upstream.Credentials{})
	require.NoError(t, err)
	require.Equal(t, PhaseIdle, store.Phase(), "loading must always return to idle")

	_, err = store.Load(context.Background(), upstream.Credentials{})
	require.NoError(t, err)
	require.Equal(t, 1, backend.fetchCalls, "second load must reuse the populated store")
}
