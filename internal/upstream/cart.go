package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
)

// cartRowPayload mirrors the backend's loose cart row shape before
// normalization into CartItem. Prices arrive as bare JSON numbers.
type cartRowPayload struct {
	CartID    string      `json:"cartId"`
	ProductID string      `json:"productId"`
	Name      string      `json:"productName"`
	Price     json.Number `json:"price"`
	Images    []string    `json:"images"`
	Color     string      `json:"color"`
	Quantity  int         `json:"quantity"`
}

func (row cartRowPayload) normalize() CartItem {
	price, err := decimal.NewFromString(row.Price.String())
	if err != nil {
		price = decimal.Zero
	}
	return CartItem{
		ID: strings.TrimSpace(row.CartID),
		Product: ProductSummary{
			ID:        strings.TrimSpace(row.ProductID),
			Name:      row.Name,
			UnitPrice: price,
			Images:    row.Images,
		},
		Color:    row.Color,
		Quantity: row.Quantity,
	}
}

// FetchCart returns the session's cart rows. Rows without a backend id or
// with a non-positive quantity are dropped rather than passed through.
func (c *Client) FetchCart(ctx context.Context, creds Credentials) ([]CartItem, Renewed, error) {
	res, err := c.call(ctx, "cart.fetch", http.MethodGet, "/cart", nil, nil, creds)
	if err != nil {
		return nil, renewedOf(res), err
	}

	var payload struct {
		CartItems []cartRowPayload `json:"cartItems"`
	}
	if err := decodeJSON(res, &payload); err != nil {
		return nil, res.renewed, err
	}

	items := make([]CartItem, 0, len(payload.CartItems))
	for _, row := range payload.CartItems {
		item := row.normalize()
		if item.ID == "" || item.Quantity <= 0 {
			continue
		}
		items = append(items, item)
	}
	return items, res.renewed, nil
}

// AddCartItem creates a new cart row. The backend assigns the row id, so
// callers re-fetch afterwards instead of patching locally.
func (c *Client) AddCartItem(ctx context.Context, creds Credentials, productID, color string, quantity int) (Renewed, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}

	body := map[string]any{
		"productId": productID,
		"color":     color,
		"quantity":  quantity,
	}
	res, err := c.call(ctx, "cart.add", http.MethodPost, "/cart/add", nil, body, creds)
	return renewedOf(res), err
}

// UpdateCartItem sets an existing row's quantity. Removing via a zero
// quantity is not supported here; callers use RemoveCartItem.
func (c *Client) UpdateCartItem(ctx context.Context, creds Credentials, itemID string, quantity int) (Renewed, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item id is required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}

	body := map[string]any{
		"itemId":   itemID,
		"quantity": quantity,
	}
	res, err := c.call(ctx, "cart.update", http.MethodPost, "/cart/update", nil, body, creds)
	return renewedOf(res), err
}

// RemoveCartItem deletes one row.
func (c *Client) RemoveCartItem(ctx context.Context, creds Credentials, itemID string) (Renewed, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item id is required")
	}

	body := map[string]any{"itemId": itemID}
	res, err := c.call(ctx, "cart.remove", http.MethodPost, "/cart/remove", nil, body, creds)
	return renewedOf(res), err
}

// ClearCart empties the session's cart (used after a confirmed payment).
func (c *Client) ClearCart(ctx context.Context, creds Credentials) (Renewed, error) {
	res, err := c.call(ctx, "cart.clear", http.MethodPost, "/cart/clear", nil, nil, creds)
	return renewedOf(res), err
}

// ClearCartForUser empties a user's cart without a browser session. The
// webhook path uses it: the only identity available there is the user id
// the checkout session was created with.
func (c *Client) ClearCartForUser(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	body := map[string]any{"userId": userID}
	_, err := c.call(ctx, "cart.clear_user", http.MethodPost, "/cart/clear", nil, body, Credentials{})
	return err
}

func renewedOf(res *callResult) Renewed {
	if res == nil {
		return nil
	}
	return res.renewed
}
