package upstream

import (
	"context"
	"net/http"
	"strings"

	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
)

type userPayload struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Status    string `json:"status"`
}

func (row userPayload) normalize() User {
	return User{
		ID:        strings.TrimSpace(row.UserID),
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Email:     row.Email,
		Phone:     row.Phone,
		Status:    strings.TrimSpace(strings.ToLower(row.Status)),
	}
}

// FetchUser returns the profile bound to the forwarded session.
func (c *Client) FetchUser(ctx context.Context, creds Credentials) (User, Renewed, error) {
	res, err := c.call(ctx, "user.fetch", http.MethodGet, "/user", nil, nil, creds)
	if err != nil {
		return User{}, renewedOf(res), err
	}

	var payload struct {
		User userPayload `json:"user"`
	}
	if err := decodeJSON(res, &payload); err != nil {
		return User{}, res.renewed, err
	}

	user := payload.User.normalize()
	if user.ID == "" {
		return User{}, res.renewed, pkgerrors.New(pkgerrors.CodeUnauthorized, "no user bound to session")
	}
	return user, res.renewed, nil
}

// UpdatePassword changes the account password through the backend.
func (c *Client) UpdatePassword(ctx context.Context, creds Credentials, current, next string) (Renewed, error) {
	if current == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "current password is required")
	}
	if next == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "new password is required")
	}

	body := map[string]any{
		"currentPassword": current,
		"newPassword":     next,
	}
	res, err := c.call(ctx, "user.password", http.MethodPost, "/user/password", nil, body, creds)
	return renewedOf(res), err
}
