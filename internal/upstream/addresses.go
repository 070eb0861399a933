package upstream

import (
	"context"
	"net/http"
	"strings"

	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
)

type addressPayload struct {
	AddressID  string `json:"addressId"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

func (row addressPayload) normalize() Address {
	return Address{
		ID:         strings.TrimSpace(row.AddressID),
		Line1:      row.Line1,
		Line2:      row.Line2,
		City:       row.City,
		State:      row.State,
		PostalCode: row.PostalCode,
		Country:    row.Country,
		Phone:      row.Phone,
	}
}

// AddressInput is the write shape for create/update.
type AddressInput struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

func (in AddressInput) validate() error {
	if strings.TrimSpace(in.Line1) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address line is required")
	}
	if strings.TrimSpace(in.City) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "city is required")
	}
	return nil
}

func (in AddressInput) body() map[string]any {
	return map[string]any{
		"line1":      in.Line1,
		"line2":      in.Line2,
		"city":       in.City,
		"state":      in.State,
		"postalCode": in.PostalCode,
		"country":    in.Country,
		"phone":      in.Phone,
	}
}

// ListAddresses returns the user's saved addresses.
func (c *Client) ListAddresses(ctx context.Context, creds Credentials) ([]Address, Renewed, error) {
	res, err := c.call(ctx, "address.list", http.MethodGet, "/address", nil, nil, creds)
	if err != nil {
		return nil, renewedOf(res), err
	}

	var payload struct {
		Addresses []addressPayload `json:"addresses"`
	}
	if err := decodeJSON(res, &payload); err != nil {
		return nil, res.renewed, err
	}

	addresses := make([]Address, 0, len(payload.Addresses))
	for _, row := range payload.Addresses {
		address := row.normalize()
		if address.ID == "" {
			continue
		}
		addresses = append(addresses, address)
	}
	return addresses, res.renewed, nil
}

// CreateAddress saves a new address.
func (c *Client) CreateAddress(ctx context.Context, creds Credentials, input AddressInput) (Renewed, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	res, err := c.call(ctx, "address.create", http.MethodPost, "/address/add", nil, input.body(), creds)
	return renewedOf(res), err
}

// UpdateAddress replaces an existing address.
func (c *Client) UpdateAddress(ctx context.Context, creds Credentials, addressID string, input AddressInput) (Renewed, error) {
	if strings.TrimSpace(addressID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	body := input.body()
	body["addressId"] = addressID
	res, err := c.call(ctx, "address.update", http.MethodPost, "/address/update", nil, body, creds)
	return renewedOf(res), err
}

// DeleteAddress removes one saved address.
func (c *Client) DeleteAddress(ctx context.Context, creds Credentials, addressID string) (Renewed, error) {
	if strings.TrimSpace(addressID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	body := map[string]any{"addressId": addressID}
	res, err := c.call(ctx, "address.delete", http.MethodPost, "/address/delete", nil, body, creds)
	return renewedOf(res), err
}
