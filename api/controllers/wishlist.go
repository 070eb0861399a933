package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kaidenz/storefront-gateway/api/responses"
	"github.com/kaidenz/storefront-gateway/api/validators"
	"github.com/kaidenz/storefront-gateway/internal/wishlist"
	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
	"github.com/kaidenz/storefront-gateway/pkg/logger"
)

type addWishlistItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

func wishlistPayload(store *wishlist.Store) map[string]any {
	items := store.Items()
	return map[string]any{
		"items": items,
		"count": len(items),
		"phase": store.Phase(),
	}
}

func WishlistFetch(registry *wishlist.Registry, logg *logger.Logger) http.HandlerFunc {
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
		responses.WriteSuccess(w, wishlistPayload(store))
	}
}

func WishlistAdd(registry *wishlist.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := sessionKey(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addWishlistItemRequest
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

		renewed, err := store.Add(r.Context(), creds, body.ProductID)
		relay(w, renewed)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wishlistPayload(store))
	}
}

func WishlistRemove(registry *wishlist.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := sessionKey(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entryID := chi.URLParam(r, "entryId")
		if entryID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "entry id is required"))
			return
		}

		store := registry.Get(key)
		creds := credentials(r)
		if renewed, err := store.Load(r.Context(), creds); err != nil {
			relay(w, renewed)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		renewed, err := store.Remove(r.Context(), creds, entryID)
		relay(w, renewed)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wishlistPayload(store))
	}
}
