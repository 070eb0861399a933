package controllers

import (
	"net/http"

	"github.com/kaidenz/storefront-gateway/internal/upstream"
	"github.com/kaidenz/storefront-gateway/pkg/cookies"
	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
)

// credentials captures the inbound request's cookies for upstream relay.
func credentials(r *http.Request) upstream.Credentials {
	return upstream.CredentialsFromRequest(r)
}

// sessionKey returns the value of the session cookie, the key for the
// per-session state registries. User-scoped handlers reject requests
// without one before touching the backend.
func sessionKey(r *http.Request) (string, error) {
	ck, err := r.Cookie(cookies.Session)
	if err != nil || ck.Value == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "no active session")
	}
	return ck.Value, nil
}

// relay propagates any cookies the backend renewed during the call.
func relay(w http.ResponseWriter, renewed upstream.Renewed) {
	cookies.Relay(w, renewed)
}
