package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kaidenz/storefront-gateway/api/responses"
	"github.com/kaidenz/storefront-gateway/api/validators"
	"github.com/kaidenz/storefront-gateway/internal/upstream"
	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
	"github.com/kaidenz/storefront-gateway/pkg/logger"
	"github.com/kaidenz/storefront-gateway/pkg/maps"
)

type addressSuggester interface {
	Suggest(ctx context.Context, req maps.SuggestRequest) ([]maps.Suggestion, error)
	Resolve(ctx context.Context, placeID string) (*maps.FormAddress, error)
}

type addressClient interface {
	ListAddresses(ctx context.Context, creds upstream.Credentials) ([]upstream.Address, upstream.Renewed, error)
	CreateAddress(ctx context.Context, creds upstream.Credentials, input upstream.AddressInput) (upstream.Renewed, error)
	UpdateAddress(ctx context.Context, creds upstream.Credentials, addressID string, input upstream.AddressInput) (upstream.Renewed, error)
	DeleteAddress(ctx context.Context, creds upstream.Credentials, addressID string) (upstream.Renewed, error)
}

// addressRequest validates the address form. Phone format gets its own
// message rather than a generic one.
type addressRequest struct {
	Line1      string `json:"line1"      validate:"required,max=200"`
	Line2      string `json:"line2"      validate:"omitempty,max=200"`
	City       string `json:"city"       validate:"required,max=100"`
	State      string `json:"state"      validate:"omitempty,max=100"`
	PostalCode string `json:"postalCode" validate:"omitempty,max=20"`
	Country    string `json:"country"    validate:"omitempty,max=60"`
	Phone      string `json:"phone"      validate:"omitempty,e164"`
}

func (body addressRequest) input() upstream.AddressInput {
	return upstream.AddressInput{
		Line1:      body.Line1,
		Line2:      body.Line2,
		City:       body.City,
		State:      body.State,
		PostalCode: body.PostalCode,
		Country:    body.Country,
		Phone:      body.Phone,
	}
}

// AddressSuggest powers the address form type-ahead. The feature is
// optional; without a configured Places key the endpoint reports it as
// unavailable rather than failing silently.
func AddressSuggest(suggester addressSuggester, regionCodes []string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if suggester == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUpstream, "address suggestions are not available"))
			return
		}

		query := r.URL.Query().Get("q")
		if query == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "query parameter q is required"))
			return
		}

		suggestions, err := suggester.Suggest(r.Context(), maps.SuggestRequest{
			Input:               query,
			IncludedRegionCodes: regionCodes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"suggestions": suggestions})
	}
}

// AddressResolve expands a selected suggestion into address form fields.
func AddressResolve(suggester addressSuggester, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if suggester == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUpstream, "address suggestions are not available"))
			return
		}

		placeID := chi.URLParam(r, "placeId")
		if placeID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "place id is required"))
			return
		}

		form, err := suggester.Resolve(r.Context(), placeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, form)
	}
}

func AddressList(client addressClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upstream client unavailable"))
			return
		}

		addresses, renewed, err := client.ListAddresses(r.Context(), credentials(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay(w, renewed)
		responses.WriteSuccess(w, addresses)
	}
}

func AddressCreate(client addressClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upstream client unavailable"))
			return
		}

		var body addressRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		renewed, err := client.CreateAddress(r.Context(), credentials(r), body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay(w, renewed)
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "created"})
	}
}

func AddressUpdate(client addressClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upstream client unavailable"))
			return
		}

		addressID := chi.URLParam(r, "addressId")
		if addressID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "address id is required"))
			return
		}

		var body addressRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		renewed, err := client.UpdateAddress(r.Context(), credentials(r), addressID, body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay(w, renewed)
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

func AddressDelete(client addressClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upstream client unavailable"))
			return
		}

		addressID := chi.URLParam(r, "addressId")
		if addressID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "address id is required"))
			return
		}

		renewed, err := client.DeleteAddress(r.Context(), credentials(r), addressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay(w, renewed)
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
