package cart

import (
	"github.com/shopspring/decimal"

	"github.com/kaidenz/storefront-gateway/internal/upstream"
)

// Snapshot is the derived view of a cart: item count and total price. It is
// recomputed from the item list on every read and never stored, so it can
// not drift from the list it summarizes.
type Snapshot struct {
	Items []upstream.CartItem `json:"items"`
	Count int                 `json:"count"`
	Total decimal.Decimal     `json:"total"`
}

// NewSnapshot computes the aggregates for the given items.
func NewSnapshot(items []upstream.CartItem) Snapshot {
	count := 0
	total := decimal.Zero
	for _, item := range items {
		count += item.Quantity
		line := item.Product.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return Snapshot{
		Items: items,
		Count: count,
		Total: total,
	}
}

// Empty reports whether the snapshot holds no items.
func (s Snapshot) Empty() bool {
	return len(s.Items) == 0
}
