package controllers

import (
	"context"
	"net/http"

	"github.com/kaidenz/storefront-gateway/api/responses"
	"github.com/kaidenz/storefront-gateway/api/validators"
	"github.com/kaidenz/storefront-gateway/internal/upstream"
	"github.com/kaidenz/storefront-gateway/pkg/cookies"
	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
	"github.com/kaidenz/storefront-gateway/pkg/logger"
)

type authClient interface {
	SignIn(ctx context.Context, creds upstream.Credentials, input upstream.SignInInput) (upstream.User, upstream.Renewed, error)
	SignUp(ctx context.Context, creds upstream.Credentials, input upstream.SignUpInput) (upstream.User, upstream.Renewed, error)
	SignOut(ctx context.Context, creds upstream.Credentials) (upstream.Renewed, error)
	VerifyEmail(ctx context.Context, creds upstream.Credentials, code string) (upstream.Renewed, error)
}

// sessionDropper evicts a session's cached state on sign-out.
type sessionDropper interface {
	Drop(sessionID string)
}

type signInRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signUpRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"  validate:"required"`
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=8"`
	Phone     string `json:"phone"     validate:"omitempty,e164"`
}

type verifyEmailRequest struct {
	Code string `json:"code" validate:"required"`
}

func userPayload(user upstream.User) map[string]any {
	return map[string]any{
		"id":        user.ID,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"email":     user.Email,
		"status":    user.Status,
	}
}

// setUserCookies writes the UI-convenience cookies the route guard and the
// storefront read. They carry no authority; the session cookie does.
func setUserCookies(w http.ResponseWriter, writer *cookies.Writer, user upstream.User) {
	writer.Set(w, cookies.UserID, user.ID)
	writer.Set(w, cookies.UserName, user.FirstName)
	writer.Set(w, cookies.UserStatus, user.Status)
}

func clearUserCookies(w http.ResponseWriter, writer *cookies.Writer) {
	writer.Clear(w, cookies.Session)
	writer.Clear(w, cookies.UserID)
	writer.Clear(w, cookies.UserName)
	writer.Clear(w, cookies.UserStatus)
}

// SignIn proxies credentials to the backend and, on success, relays the
// issued session cookie plus the UI cookies.
func SignIn(client authClient, writer *cookies.Writer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upstream client unavailable"))
			return
		}

		var body signInRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, renewed, err := client.SignIn(r.Context(), credentials(r), upstream.SignInInput{
			Email:    body.Email,
			Password: body.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay(w, renewed)
		setUserCookies(w, writer, user)
		responses.WriteSuccess(w, userPayload(user))
	}
}

func SignUp(client authClient, writer *cookies.Writer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upstream client unavailable"))
			return
		}

		var body signUpRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, renewed, err := client.SignUp(r.Context(), credentials(r), upstream.SignUpInput{
			FirstName: body.FirstName,
			LastName:  body.LastName,
			Email:     body.Email,
			Password:  body.Password,
			Phone:     body.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay(w, renewed)
		setUserCookies(w, writer, user)
		responses.WriteSuccess(w, userPayload(user))
	}
}

// SignOut tells the backend to end the session, clears the local cookies,
// and drops the session's cached cart/wishlist state.
func SignOut(client authClient, writer *cookies.Writer, carts, wishlists sessionDropper, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upstream client unavailable"))
			return
		}

		creds := credentials(r)
		renewed, err := client.SignOut(r.Context(), creds)
		if err != nil && pkgerrors.CodeOf(err) != pkgerrors.CodeUnauthorized {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if session := creds.Cookie(cookies.Session); session != "" {
			if carts != nil {
				carts.Drop(session)
			}
			if wishlists != nil {
				wishlists.Drop(session)
			}
		}

		relay(w, renewed)
		clearUserCookies(w, writer)
		responses.WriteSuccess(w, map[string]string{"status": "signed_out"})
	}
}

func VerifyEmail(client authClient, writer *cookies.Writer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upstream client unavailable"))
			return
		}

		var body verifyEmailRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		renewed, err := client.VerifyEmail(r.Context(), credentials(r), body.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay(w, renewed)
		writer.Set(w, cookies.UserStatus, cookies.StatusVerified)
		responses.WriteSuccess(w, map[string]string{"status": cookies.StatusVerified})
	}
}
