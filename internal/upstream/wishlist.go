package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
)

type wishlistRowPayload struct {
	WishlistID  string      `json:"wishlistId"`
	UserID      string      `json:"userId"`
	ProductID   string      `json:"productId"`
	Name        string      `json:"productName"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Price       json.Number `json:"price"`
	Images      []string    `json:"images"`
}

func (row wishlistRowPayload) normalize() WishlistItem {
	price, err := decimal.NewFromString(row.Price.String())
	if err != nil {
		price = decimal.Zero
	}
	return WishlistItem{
		EntryID: strings.TrimSpace(row.WishlistID),
		UserID:  strings.TrimSpace(row.UserID),
		Product: Product{
			ID:          strings.TrimSpace(row.ProductID),
			Name:        row.Name,
			Description: row.Description,
			Category:    row.Category,
			Price:       price,
			Images:      row.Images,
		},
	}
}

// FetchWishlist returns the user's wishlist entries. Rows without a backend
// id are dropped.
func (c *Client) FetchWishlist(ctx context.Context, creds Credentials) ([]WishlistItem, Renewed, error) {
	res, err := c.call(ctx, "wishlist.fetch", http.MethodGet, "/wishlist", nil, nil, creds)
	if err != nil {
		return nil, renewedOf(res), err
	}

	var payload struct {
		WishlistItems []wishlistRowPayload `json:"wishlistItems"`
	}
	if err := decodeJSON(res, &payload); err != nil {
		return nil, res.renewed, err
	}

	items := make([]WishlistItem, 0, len(payload.WishlistItems))
	for _, row := range payload.WishlistItems {
		item := row.normalize()
		if item.EntryID == "" {
			continue
		}
		items = append(items, item)
	}
	return items, res.renewed, nil
}

// AddWishlistItem adds a product to the wishlist.
func (c *Client) AddWishlistItem(ctx context.Context, creds Credentials, productID string) (Renewed, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	body := map[string]any{"productId": productID}
	res, err := c.call(ctx, "wishlist.add", http.MethodPost, "/wishlist/add", nil, body, creds)
	return renewedOf(res), err
}

// RemoveWishlistItem drops one wishlist entry by its backend id.
func (c *Client) RemoveWishlistItem(ctx context.Context, creds Credentials, entryID string) (Renewed, error) {
	if strings.TrimSpace(entryID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist entry id is required")
	}

	body := map[string]any{"wishlistId": entryID}
	res, err := c.call(ctx, "wishlist.remove", http.MethodPost, "/wishlist/remove", nil, body, creds)
	return renewedOf(res), err
}
