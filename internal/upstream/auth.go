package upstream

import (
	"context"
	"net/http"
	"strings"

	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
)

// SignInInput carries sign-in credentials to the backend.
type SignInInput struct {
	Email    string
	Password string
}

// SignUpInput carries registration fields to the backend.
type SignUpInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
}

// SignIn authenticates against the backend. On success the backend issues
// a session cookie in the response, returned through Renewed for relay.
func (c *Client) SignIn(ctx context.Context, creds Credentials, input SignInInput) (User, Renewed, error) {
	if strings.TrimSpace(input.Email) == "" {
		return User{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if input.Password == "" {
		return User{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}

	body := map[string]any{
		"email":    input.Email,
		"password": input.Password,
	}
	res, err := c.call(ctx, "auth.signin", http.MethodPost, "/auth/signin", nil, body, creds)
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
		return User{}, res.renewed, pkgerrors.New(pkgerrors.CodeUpstreamMalformed, "sign-in response missing user")
	}
	return user, res.renewed, nil
}

// SignUp registers a new account. The backend sends the verification email.
func (c *Client) SignUp(ctx context.Context, creds Credentials, input SignUpInput) (User, Renewed, error) {
	if strings.TrimSpace(input.Email) == "" {
		return User{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if input.Password == "" {
		return User{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}
	if strings.TrimSpace(input.FirstName) == "" {
		return User{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "first name is required")
	}

	body := map[string]any{
		"firstName": input.FirstName,
		"lastName":  input.LastName,
		"email":     input.Email,
		"password":  input.Password,
		"phone":     input.Phone,
	}
	res, err := c.call(ctx, "auth.signup", http.MethodPost, "/auth/signup", nil, body, creds)
	if err != nil {
		return User{}, renewedOf(res), err
	}

	var payload struct {
		User userPayload `json:"user"`
	}
	if err := decodeJSON(res, &payload); err != nil {
		return User{}, res.renewed, err
	}
	return payload.User.normalize(), res.renewed, nil
}

// SignOut invalidates the backend session.
func (c *Client) SignOut(ctx context.Context, creds Credentials) (Renewed, error) {
	res, err := c.call(ctx, "auth.signout", http.MethodPost, "/auth/signout", nil, nil, creds)
	return renewedOf(res), err
}

// VerifyEmail submits the emailed verification code.
func (c *Client) VerifyEmail(ctx context.Context, creds Credentials, code string) (Renewed, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "verification code is required")
	}
	body := map[string]any{"code": code}
	res, err := c.call(ctx, "auth.verify", http.MethodPost, "/auth/verify-email", nil, body, creds)
	return renewedOf(res), err
}
