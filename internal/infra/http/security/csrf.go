package security

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	CSRFCookieName = "csrf-token"
	CSRFHeaderName = "X-CSRF-Token"
	CSRFTokenTTL   = time.Hour
)

// CSRFGuard implements the double-submit pattern: the token travels both in
// an HttpOnly cookie and in a header set by the page script.
type CSRFGuard struct {
	Secure   bool
	TTL      time.Duration
	NewToken func() string
}

func NewCSRFGuard(secure bool) *CSRFGuard {
	return &CSRFGuard{
		Secure:   secure,
		TTL:      CSRFTokenTTL,
		NewToken: uuid.NewString,
	}
}

// Issue sets the cookie on w and returns the token for the response body.
func (g *CSRFGuard) Issue(w http.ResponseWriter) string {
	token := g.NewToken()

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(g.TTL.Seconds()),
		HttpOnly: true,
		Secure:   g.Secure,
		SameSite: http.SameSiteStrictMode,
	})

	return token
}

func (g *CSRFGuard) Verify(r *http.Request) bool {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil {
		return false
	}
	return TokensMatch(r.Header.Get(CSRFHeaderName), cookie.Value)
}

// TokensMatch requires both values to be present and equal.
func TokensMatch(header, cookie string) bool {
	if header == "" || cookie == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(cookie)) == 1
}
