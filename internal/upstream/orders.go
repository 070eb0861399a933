package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
)

type orderPayload struct {
	OrderID   string      `json:"orderId"`
	Status    string      `json:"status"`
	Total     json.Number `json:"total"`
	CreatedAt string      `json:"createdAt"`
	Items     []struct {
		ProductID string      `json:"productId"`
		Name      string      `json:"productName"`
		Color     string      `json:"color"`
		Quantity  int         `json:"quantity"`
		Price     json.Number `json:"price"`
	} `json:"items"`
}

func (row orderPayload) normalize() Order {
	total, err := decimal.NewFromString(row.Total.String())
	if err != nil {
		total = decimal.Zero
	}
	items := make([]OrderItem, 0, len(row.Items))
	for _, it := range row.Items {
		price, convErr := decimal.NewFromString(it.Price.String())
		if convErr != nil {
			price = decimal.Zero
		}
		items = append(items, OrderItem{
			ProductID:   strings.TrimSpace(it.ProductID),
			ProductName: it.Name,
			Color:       it.Color,
			Quantity:    it.Quantity,
			UnitPrice:   price,
		})
	}
	return Order{
		ID:        strings.TrimSpace(row.OrderID),
		Status:    row.Status,
		Total:     total,
		Items:     items,
		CreatedAt: row.CreatedAt,
	}
}

// ListOrders returns the user's order history.
func (c *Client) ListOrders(ctx context.Context, creds Credentials) ([]Order, Renewed, error) {
	res, err := c.call(ctx, "orders.list", http.MethodGet, "/orders", nil, nil, creds)
	if err != nil {
		return nil, renewedOf(res), err
	}

	var payload struct {
		Orders []orderPayload `json:"orders"`
	}
	if err := decodeJSON(res, &payload); err != nil {
		return nil, res.renewed, err
	}

	orders := make([]Order, 0, len(payload.Orders))
	for _, row := range payload.Orders {
		order := row.normalize()
		if order.ID == "" {
			continue
		}
		orders = append(orders, order)
	}
	return orders, res.renewed, nil
}

// GetOrder returns one order for the confirmation view.
func (c *Client) GetOrder(ctx context.Context, creds Credentials, orderID string) (Order, Renewed, error) {
	if strings.TrimSpace(orderID) == "" {
		return Order{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	query := url.Values{}
	query.Set("id", orderID)
	res, err := c.call(ctx, "orders.get", http.MethodGet, "/order", query, nil, creds)
	if err != nil {
		return Order{}, renewedOf(res), err
	}

	var payload struct {
		Order orderPayload `json:"order"`
	}
	if err := decodeJSON(res, &payload); err != nil {
		return Order{}, res.renewed, err
	}

	order := payload.Order.normalize()
	if order.ID == "" {
		return Order{}, res.renewed, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, res.renewed, nil
}

// RecordOrderInput captures a completed payment for the backend to persist.
type RecordOrderInput struct {
	PaymentRef string
	UserID     string
	Total      decimal.Decimal
	ItemCount  int
	Shipping   map[string]string
}

// RecordOrder tells the backend a hosted-checkout payment completed. Called
// from both the redirect-back confirmation and the webhook, so the backend
// is expected to dedupe on PaymentRef.
func (c *Client) RecordOrder(ctx context.Context, creds Credentials, input RecordOrderInput) (Renewed, error) {
	if strings.TrimSpace(input.PaymentRef) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}

	body := map[string]any{
		"paymentRef": input.PaymentRef,
		"userId":     input.UserID,
		"total":      input.Total.String(),
		"itemCount":  input.ItemCount,
		"shipping":   input.Shipping,
	}
	res, err := c.call(ctx, "orders.record", http.MethodPost, "/order/record", nil, body, creds)
	return renewedOf(res), err
}
