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

type productPayload struct {
	ProductID   string      `json:"productId"`
	Name        string      `json:"productName"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Price       json.Number `json:"price"`
	Images      []string    `json:"images"`
	Colors      []string    `json:"colors"`
	Stock       int         `json:"stock"`
}

func (row productPayload) normalize() Product {
	price, err := decimal.NewFromString(row.Price.String())
	if err != nil {
		price = decimal.Zero
	}
	return Product{
		ID:          strings.TrimSpace(row.ProductID),
		Name:        row.Name,
		Description: row.Description,
		Category:    row.Category,
		Price:       price,
		Images:      row.Images,
		Colors:      row.Colors,
		Stock:       row.Stock,
	}
}

// ListProducts returns the whole catalog.
func (c *Client) ListProducts(ctx context.Context, creds Credentials) ([]Product, Renewed, error) {
	return c.listProducts(ctx, creds, nil)
}

// ListProductsByCategory filters the catalog server-side.
func (c *Client) ListProductsByCategory(ctx context.Context, creds Credentials, category string) ([]Product, Renewed, error) {
	if strings.TrimSpace(category) == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	query := url.Values{}
	query.Set("category", category)
	return c.listProducts(ctx, creds, query)
}

func (c *Client) listProducts(ctx context.Context, creds Credentials, query url.Values) ([]Product, Renewed, error) {
	res, err := c.call(ctx, "products.list", http.MethodGet, "/products", query, nil, creds)
	if err != nil {
		return nil, renewedOf(res), err
	}

	var payload struct {
		Products []productPayload `json:"products"`
	}
	if err := decodeJSON(res, &payload); err != nil {
		return nil, res.renewed, err
	}

	products := make([]Product, 0, len(payload.Products))
	for _, row := range payload.Products {
		product := row.normalize()
		if product.ID == "" {
			continue
		}
		products = append(products, product)
	}
	return products, res.renewed, nil
}

// GetProduct returns one catalog record by id.
func (c *Client) GetProduct(ctx context.Context, creds Credentials, productID string) (Product, Renewed, error) {
	if strings.TrimSpace(productID) == "" {
		return Product{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	query := url.Values{}
	query.Set("id", productID)
	res, err := c.call(ctx, "products.get", http.MethodGet, "/product", query, nil, creds)
	if err != nil {
		return Product{}, renewedOf(res), err
	}

	var payload struct {
		Product productPayload `json:"product"`
	}
	if err := decodeJSON(res, &payload); err != nil {
		return Product{}, res.renewed, err
	}

	product := payload.Product.normalize()
	if product.ID == "" {
		return Product{}, res.renewed, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, res.renewed, nil
}
