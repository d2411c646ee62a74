// Package cookie provides the cookie helpers used to persist the anonymous
// shopper identity between requests.
package cookie

import (
	"net/http"
	"time"
)

// Cookie names used by the checkout API.
const (
	// ShopperCookieName carries the anonymous shopper ID that owns a cart session.
	ShopperCookieName = "souk_shopper"

	// ShopperMaxAge keeps an anonymous shopper recognisable for 30 days.
	ShopperMaxAge = 30 * 24 * 60 * 60
)

// Config holds cookie scoping options.
type Config struct {
	// Domain scopes cookies to a parent domain (e.g. "souk.ng").
	// Empty means host-only cookies.
	Domain string

	// Secure determines whether cookies require HTTPS.
	// Should be true in production, false in development.
	Secure bool
}

// NewConfig creates a new cookie configuration.
func NewConfig(domain string, secure bool) *Config {
	return &Config{
		Domain: domain,
		Secure: secure,
	}
}

// Set writes an HttpOnly, SameSite=Lax cookie valid for maxAge seconds.
func (c *Config) Set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, c.build(name, value, maxAge))
}

// SetWithExpiry writes a cookie with an explicit expiration time.
func (c *Config) SetWithExpiry(w http.ResponseWriter, name, value string, expires time.Time) {
	ck := c.build(name, value, 0)
	ck.Expires = expires
	http.SetCookie(w, ck)
}

// Clear removes a cookie. Domain and path must match the original.
func (c *Config) Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, c.build(name, "", -1))
}

func (c *Config) build(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   c.Domain,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Get retrieves a cookie value from the request.
// Returns empty string if cookie not found.
func Get(r *http.Request, name string) string {
	ck, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}
