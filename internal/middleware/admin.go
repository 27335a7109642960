package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/service"
	"github.com/iliyamo/bus-seat-reservation/internal/utils"
)

// AdminKeyHeader carries the shared operator key.
const AdminKeyHeader = "X-Admin-Key"

// AdminKeys holds the accepted operator key, plain or bcrypt-hashed.  When
// both are empty the header scheme is disabled.
type AdminKeys struct {
	Plain string
	Hash  string
}

func (k AdminKeys) match(provided string) bool {
	if provided == "" {
		return false
	}
	if k.Plain != "" && subtle.ConstantTimeCompare([]byte(k.Plain), []byte(provided)) == 1 {
		return true
	}
	return k.Hash != "" && utils.VerifySecret(k.Hash, provided)
}

// AdminDecision computes a service.AuthorizationDecision for the request and
// stores it in the context.  A staff token (see StaffJWT) wins; otherwise the
// X-Admin-Key header is checked.  The request always proceeds: the booking
// operations reject an unauthorized decision themselves.
func AdminDecision(keys AdminKeys) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := service.AuthorizationDecision{}
			if staff := StaffID(c); staff != "" {
				d = service.AuthorizationDecision{Authorized: true, Actor: "staff:" + staff}
			} else if keys.match(strings.TrimSpace(c.Request().Header.Get(AdminKeyHeader))) {
				d = service.AuthorizationDecision{Authorized: true, Actor: "api-key"}
			}
			c.Set(ctxAdmin, d)
			return next(c)
		}
	}
}

// Decision returns the decision stored by AdminDecision; a request that did
// not pass through it is unauthorized.
func Decision(c echo.Context) service.AuthorizationDecision {
	d, _ := c.Get(ctxAdmin).(service.AuthorizationDecision)
	return d
}
