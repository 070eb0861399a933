package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/kaidenz/storefront-gateway/pkg/cookies"
)

const (
	signInPath = "/sign-in"
	homePath   = "/"
)

var protectedPrefixes = []string{"/cart", "/checkout", "/profile", "/wishlist", "/orders"}

var authPaths = []string{"/sign-in", "/sign-up"}

// Guard gates page navigation on cookie presence. It is a UX short-circuit
// only: the session token is never verified here, the backend rejects
// stale or forged tokens on the next proxied call. Any cookie read problem
// counts as "not verified", since redirecting to sign-in is harmless and
// visible.
func Guard() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			verified := hasVerifiedCookies(r)

			switch {
			case isProtected(path) && !verified:
				target := signInPath + "?redirect=" + url.QueryEscape(path)
				http.Redirect(w, r, target, http.StatusSeeOther)
			case isAuthPath(path) && verified:
				http.Redirect(w, r, homePath, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func hasVerifiedCookies(r *http.Request) bool {
	session, err := r.Cookie(cookies.Session)
	if err != nil || session.Value == "" {
		return false
	}
	userID, err := r.Cookie(cookies.UserID)
	if err != nil || userID.Value == "" {
		return false
	}
	status, err := r.Cookie(cookies.UserStatus)
	if err != nil {
		return false
	}
	return status.Value == cookies.StatusVerified
}

func isProtected(path string) bool {
	for _, prefix := range protectedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func isAuthPath(path string) bool {
	for _, auth := range authPaths {
		if path == auth {
			return true
		}
	}
	return false
}
