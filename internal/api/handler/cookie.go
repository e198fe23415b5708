package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// SessionCookieName is the cookie carrying the session JWT.
const SessionCookieName = "token"

// setSessionCookie attaches the session token as an HTTP-only cookie. Secure
// is only set outside local development so browsers accept it over plain HTTP
// there. Admin sessions use Strict same-site; user sessions use Lax so
// top-level navigation from email links keeps the session.
func setSessionCookie(c echo.Context, token string, ttl time.Duration, sameSite http.SameSite, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

// clearSessionCookie expires the session cookie immediately.
func clearSessionCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ExtractToken pulls the session token from the cookie first, then from the
// Authorization bearer header. Empty string means unauthenticated.
func ExtractToken(c echo.Context) string {
	if ck, err := c.Cookie(SessionCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
