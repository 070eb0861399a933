package controllers

import (
	"net/http"

	"github.com/kaidenz/storefront-gateway/api/responses"
	"github.com/kaidenz/storefront-gateway/api/validators"
	"github.com/kaidenz/storefront-gateway/internal/cart"
	"github.com/kaidenz/storefront-gateway/internal/checkout"
	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
	"github.com/kaidenz/storefront-gateway/pkg/logger"
)

type confirmCheckoutRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
}

// CheckoutCreate opens a hosted payment session for the current cart and
// returns the provider redirect. Nothing local changes: if the provider
// rejects the request, the client keeps its form state.
func CheckoutCreate(svc checkout.Service, carts *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		key, err := sessionKey(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkout.ShippingInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		redirect, renewed, err := svc.CreateSession(r.Context(), credentials(r), carts.Get(key), body)
		relay(w, renewed)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, redirect)
	}
}

// CheckoutConfirm handles the redirect back from the provider: it records
// the order and clears the cart, then returns the confirmation summary.
func CheckoutConfirm(svc checkout.Service, carts *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		key, err := sessionKey(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body confirmCheckoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		confirmation, renewed, err := svc.Confirm(r.Context(), credentials(r), carts.Get(key), body.SessionID)
		relay(w, renewed)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, confirmation)
	}
}
