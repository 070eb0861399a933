package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kaidenz/storefront-gateway/pkg/cookies"
)

type cookieSet struct {
	session string
	userID  string
	status  string
}

var verifiedCookies = cookieSet{session: "tok", userID: "u-1", status: "verified"}

func guardRequest(t *testing.T, path string, set cookieSet) *httptest.ResponseRecorder {
	t.Helper()
	passed := false
	handler := Guard()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		passed = true
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, path, nil)
	if set.session != "" {
		r.AddCookie(&http.Cookie{Name: cookies.Session, Value: set.session})
	}
	if set.userID != "" {
		r.AddCookie(&http.Cookie{Name: cookies.UserID, Value: set.userID})
	}
	if set.status != "" {
		r.AddCookie(&http.Cookie{Name: cookies.UserStatus, Value: set.status})
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code == http.StatusOK && !passed {
		t.Fatalf("handler not reached despite 200")
	}
	return w
}

func TestGuardDecisionTable(t *testing.T) {
	cases := []struct {
		name         string
		path         string
		cookies      cookieSet
		wantStatus   int
		wantLocation string
	}{
		{"protected verified passes", "/cart", verifiedCookies, http.StatusOK, ""},
		{"protected subpath verified passes", "/orders/123", verifiedCookies, http.StatusOK, ""},
		{"protected no cookies redirects", "/cart", cookieSet{}, http.StatusSeeOther, "/sign-in?redirect=%2Fcart"},
		{"protected missing session redirects", "/wishlist", cookieSet{userID: "u-1", status: "verified"}, http.StatusSeeOther, "/sign-in?redirect=%2Fwishlist"},
		{"protected missing user id redirects", "/profile", cookieSet{session: "tok", status: "verified"}, http.StatusSeeOther, "/sign-in?redirect=%2Fprofile"},
		{"protected unverified status redirects", "/checkout", cookieSet{session: "tok", userID: "u-1", status: "pending"}, http.StatusSeeOther, "/sign-in?redirect=%2Fcheckout"},
		{"auth path verified bounces home", "/sign-in", verifiedCookies, http.StatusSeeOther, "/"},
		{"sign-up verified bounces home", "/sign-up", verifiedCookies, http.StatusSeeOther, "/"},
		{"auth path anonymous passes", "/sign-in", cookieSet{}, http.StatusOK, ""},
		{"auth path unverified passes", "/sign-in", cookieSet{session: "tok", userID: "u-1", status: "pending"}, http.StatusOK, ""},
		{"neutral path anonymous passes", "/products/42", cookieSet{}, http.StatusOK, ""},
		{"neutral path verified passes", "/products/42", verifiedCookies, http.StatusOK, ""},
		{"prefix lookalike is not protected", "/cartoon", cookieSet{}, http.StatusOK, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := guardRequest(t, tc.path, tc.cookies)
			if w.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, w.Code)
			}
			if tc.wantLocation != "" {
				if got := w.Header().Get("Location"); got != tc.wantLocation {
					t.Fatalf("expected redirect to %q, got %q", tc.wantLocation, got)
				}
			}
		})
	}
}

func TestGuardStatusMustBeExactlyVerified(t *testing.T) {
	for _, status := range []string{"Verified", "VERIFIED", " verified", "verified "} {
		w := guardRequest(t, "/cart", cookieSet{session: "tok", userID: "u-1", status: status})
		if w.Code != http.StatusSeeOther {
			t.Fatalf("status %q must not count as verified", status)
		}
	}
}
