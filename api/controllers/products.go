package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kaidenz/storefront-gateway/api/responses"
	"github.com/kaidenz/storefront-gateway/internal/upstream"
	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
	"github.com/kaidenz/storefront-gateway/pkg/logger"
)

type productClient interface {
	ListProducts(ctx context.Context, creds upstream.Credentials) ([]upstream.Product, upstream.Renewed, error)
	ListProductsByCategory(ctx context.Context, creds upstream.Credentials, category string) ([]upstream.Product, upstream.Renewed, error)
	GetProduct(ctx context.Context, creds upstream.Credentials, productID string) (upstream.Product, upstream.Renewed, error)
}

func ProductList(client productClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upstream client unavailable"))
			return
		}

		products, renewed, err := client.ListProducts(r.Context(), credentials(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay(w, renewed)
		responses.WriteSuccess(w, products)
	}
}

func ProductsByCategory(client productClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upstream client unavailable"))
			return
		}

		category := chi.URLParam(r, "category")
		if category == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "category is required"))
			return
		}

		products, renewed, err := client.ListProductsByCategory(r.Context(), credentials(r), category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay(w, renewed)
		responses.WriteSuccess(w, products)
	}
}

func ProductDetail(client productClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upstream client unavailable"))
			return
		}

		product, renewed, err := client.GetProduct(r.Context(), credentials(r), chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay(w, renewed)
		responses.WriteSuccess(w, product)
	}
}
