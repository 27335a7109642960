package middleware

// identity.go manages the hold token, the opaque per-browser credential that
// identifies which seats a session holds.  It lives in a cookie; the
// reservation core only ever receives it as a plain string.

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/utils"
)

// HoldCookieName is the cookie carrying the hold token.
const HoldCookieName = "seat_hold_token"

const holdCookieMaxAge = 14 * 24 * time.Hour

// HoldSession makes sure the request has a hold token, issuing a new cookie
// when the browser has none, and stores the token under "hold_token".
func HoldSession(secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := cookieToken(c)
			if token == "" {
				t, err := utils.NewHoldToken()
				if err != nil {
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue session"})
				}
				token = t
				c.SetCookie(&http.Cookie{
					Name:     HoldCookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(holdCookieMaxAge / time.Second),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			c.Set(ctxHoldToken, token)
			return next(c)
		}
	}
}

// HoldToken returns the session's hold token: the one set by HoldSession,
// else the cookie value, else "".  It never issues a token.
func HoldToken(c echo.Context) string {
	if t, ok := c.Get(ctxHoldToken).(string); ok && t != "" {
		return t
	}
	return cookieToken(c)
}

func cookieToken(c echo.Context) string {
	ck, err := c.Cookie(HoldCookieName)
	if err != nil || ck == nil {
		return ""
	}
	// tokens are 32 hex chars; anything else is ignored and replaced
	if len(ck.Value) != 32 {
		return ""
	}
	for _, r := range ck.Value {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return ""
		}
	}
	return ck.Value
}
