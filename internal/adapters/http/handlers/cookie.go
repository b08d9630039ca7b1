package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const refreshCookieName = "refreshToken"

// setRefreshCookie delivers the refresh token the only way it ever leaves
// the server: an HttpOnly strict-same-site cookie. Secure is tied to the
// production flag so local HTTP development keeps working.
func setRefreshCookie(c echo.Context, value string, expires time.Time, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func refreshCookieValue(c echo.Context) string {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie == nil {
		return ""
	}
	return cookie.Value
}
