package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/utils"
)

// Context keys populated by the middleware in this package.
const (
	ctxStaffID   = "staff_id"
	ctxHoldToken = "hold_token"
	ctxAdmin     = "admin_decision"
)

// StaffJWT parses an optional "Authorization: Bearer <jwt>" header.  A valid
// token with the STAFF role stores its subject under "staff_id"; anything
// else is ignored here and simply leaves the request unauthenticated.  The
// admin decision is made later by AdminDecision.
func StaffJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") || secret == "" {
				return next(c)
			}
			claims, err := utils.ParseStaffToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				c.Logger().Debugf("staff jwt rejected: %v", err)
				return next(c)
			}
			if claims.Role == utils.RoleStaff && claims.Subject != "" {
				c.Set(ctxStaffID, claims.Subject)
			}
			return next(c)
		}
	}
}

// StaffID returns the authenticated staff subject, or "" when the request
// carried no valid staff token.
func StaffID(c echo.Context) string {
	s, _ := c.Get(ctxStaffID).(string)
	return s
}
