package controllers

import (
	"context"
	"net/http"

	"github.com/kaidenz/storefront-gateway/api/responses"
	"github.com/kaidenz/storefront-gateway/internal/upstream"
	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
	"github.com/kaidenz/storefront-gateway/pkg/logger"
)

type sessionProber interface {
	ProbeSession(ctx context.Context, creds upstream.Credentials) (upstream.SessionProbe, upstream.Renewed, error)
}

// SessionProbe reports whether the browser's session cookie is still valid
// upstream. A rejected session is a normal answer, not an error.
func SessionProbe(client sessionProber, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upstream client unavailable"))
			return
		}

		probe, renewed, err := client.ProbeSession(r.Context(), credentials(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay(w, renewed)
		responses.WriteSuccess(w, map[string]any{
			"authenticated": probe.Authenticated,
			"sessionId":     probe.SessionID,
		})
	}
}
