package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kaidenz/storefront-gateway/api/responses"
	"github.com/kaidenz/storefront-gateway/api/validators"
	"github.com/kaidenz/storefront-gateway/internal/cart"
	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
	"github.com/kaidenz/storefront-gateway/pkg/logger"
)

type addCartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Color     string `json:"color"     validate:"omitempty,max=50"`
	Quantity  int    `json:"quantity"  validate:"required,min=1"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

func cartPayload(store *cart.Store) map[string]any {
	snap := store.Snapshot()
	return map[string]any{
		"items": snap.Items,
		"count": snap.Count,
		"total": snap.Total,
		"phase": store.Phase(),
	}
}

// CartFetch returns the session's cart, loading it from the backend on
// first access.
func CartFetch(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := sessionKey(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store := registry.Get(key)
		renewed, err := store.Load(r.Context(), credentials(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay(w, renewed)
		responses.WriteSuccess(w, cartPayload(store))
	}
}

func CartAdd(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := sessionKey(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store := registry.Get(key)
		creds := credentials(r)
		if renewed, err := store.Load(r.Context(), creds); err != nil {
			relay(w, renewed)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		renewed, err := store.Add(r.Context(), creds, body.ProductID, body.Color, body.Quantity)
		relay(w, renewed)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartPayload(store))
	}
}

// CartUpdate sets an item's quantity. The store applies the change
// optimistically and reconciles on backend failure, so the payload always
// reflects what the client should display.
func CartUpdate(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := sessionKey(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store := registry.Get(key)
		creds := credentials(r)
		if renewed, err := store.Load(r.Context(), creds); err != nil {
			relay(w, renewed)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		renewed, err := store.UpdateQuantity(r.Context(), creds, chi.URLParam(r, "itemId"), body.Quantity)
		relay(w, renewed)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartPayload(store))
	}
}

func CartRemove(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := sessionKey(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID := chi.URLParam(r, "itemId")
		if itemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}

		store := registry.Get(key)
		creds := credentials(r)
		if renewed, err := store.Load(r.Context(), creds); err != nil {
			relay(w, renewed)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		renewed, err := store.Remove(r.Context(), creds, itemID)
		relay(w, renewed)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartPayload(store))
	}
}
