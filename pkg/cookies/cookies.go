package cookies

import (
	"net/http"

	"github.com/kaidenz/storefront-gateway/pkg/config"
)

// Cookie names shared between the gateway and the storefront client. The
// session cookie is issued by the upstream backend; the gateway only relays
// it. The rest are UI-convenience values, never trusted for authorization.
const (
	Session    = "kaidenz_session"
	UserID     = "kaidenz_user_id"
	UserName   = "kaidenz_user_name"
	UserStatus = "kaidenz_user_status"

	StatusVerified = "verified"
)

// Writer applies the gateway's cookie policy (1h lifetime, Lax, non-secure
// in the development posture) when setting UI cookies.
type Writer struct {
	cfg config.CookieConfig
}

func NewWriter(cfg config.CookieConfig) *Writer {
	return &Writer{cfg: cfg}
}

// Set writes a UI cookie with the configured policy.
func (wr *Writer) Set(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   wr.cfg.Domain,
		MaxAge:   wr.cfg.MaxAgeSeconds,
		Secure:   wr.cfg.Secure,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires a cookie immediately.
func (wr *Writer) Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   wr.cfg.Domain,
		MaxAge:   -1,
		Secure:   wr.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Relay propagates cookies renewed by the upstream backend onto the
// gateway's response. Every Set-Cookie the upstream issued is forwarded,
// not just the first.
func Relay(w http.ResponseWriter, renewed []*http.Cookie) {
	for _, ck := range renewed {
		if ck == nil || ck.Name == "" {
			continue
		}
		http.SetCookie(w, ck)
	}
}
