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

type orderClient interface {
	ListOrders(ctx context.Context, creds upstream.Credentials) ([]upstream.Order, upstream.Renewed, error)
	GetOrder(ctx context.Context, creds upstream.Credentials, orderID string) (upstream.Order, upstream.Renewed, error)
}

func OrderList(client orderClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upstream client unavailable"))
			return
		}

		orders, renewed, err := client.ListOrders(r.Context(), credentials(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay(w, renewed)
		responses.WriteSuccess(w, orders)
	}
}

func OrderDetail(client orderClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upstream client unavailable"))
			return
		}

		order, renewed, err := client.GetOrder(r.Context(), credentials(r), chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay(w, renewed)
		responses.WriteSuccess(w, order)
	}
}
