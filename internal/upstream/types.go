package upstream

import (
	"net/http"

	"github.com/shopspring/decimal"
)

// Credentials carries the browser's cookies into an upstream call. The
// session cookie is the only shared mutable resource across proxies, so it
// is threaded explicitly rather than held as ambient state.
type Credentials struct {
	cookies []*http.Cookie
}

// CredentialsFromRequest captures the inbound request's cookies for relay.
func CredentialsFromRequest(r *http.Request) Credentials {
	if r == nil {
		return Credentials{}
	}
	return Credentials{cookies: r.Cookies()}
}

// CredentialsFromCookies builds credentials from explicit cookies.
func CredentialsFromCookies(cookies ...*http.Cookie) Credentials {
	return Credentials{cookies: cookies}
}

// Cookie returns the named cookie's value, or "" when absent.
func (c Credentials) Cookie(name string) string {
	for _, ck := range c.cookies {
		if ck != nil && ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// Empty reports whether no cookies were captured.
func (c Credentials) Empty() bool {
	return len(c.cookies) == 0
}

func (c Credentials) apply(req *http.Request) {
	for _, ck := range c.cookies {
		if ck != nil && ck.Name != "" {
			req.AddCookie(ck)
		}
	}
}

// Renewed holds cookies the backend issued on a response. All Set-Cookie
// headers are kept, not just the first.
type Renewed []*http.Cookie

// Merge appends other after r, preserving issue order.
func (r Renewed) Merge(other Renewed) Renewed {
	if len(other) == 0 {
		return r
	}
	return append(r, other...)
}

// ProductSummary is the slice of product data embedded in cart rows.
type ProductSummary struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Images    []string        `json:"images"`
}

// CartItem is one row of the session's cart as the backend reports it.
type CartItem struct {
	ID       string         `json:"id"`
	Product  ProductSummary `json:"product"`
	Color    string         `json:"color"`
	Quantity int            `json:"quantity"`
}

// WishlistItem is one wishlist entry. No quantity; membership is boolean
// per product.
type WishlistItem struct {
	EntryID string  `json:"entry_id"`
	Product Product `json:"product"`
	UserID  string  `json:"user_id"`
}

// Product is the full catalog record.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images"`
	Colors      []string        `json:"colors"`
	Stock       int             `json:"stock"`
}

// User is the profile record owned by the backend.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Status    string `json:"status"`
}

// Address is one saved shipping address.
type Address struct {
	ID         string `json:"id"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// OrderItem is one line of a placed order.
type OrderItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Color       string          `json:"color"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Order is a placed order as the backend reports it.
type Order struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	Items     []OrderItem     `json:"items"`
	CreatedAt string          `json:"created_at"`
}

// SessionProbe is the result of asking the backend whether the forwarded
// session cookie is still valid.
type SessionProbe struct {
	Authenticated bool   `json:"authenticated"`
	SessionID     string `json:"session_id,omitempty"`
}
