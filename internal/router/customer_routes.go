package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/handler"
	"github.com/iliyamo/bus-seat-reservation/internal/middleware"
)

// RegisterCustomer registers the hold flow under /api.  Every route gets a
// hold session; acquiring and claiming are additionally rate limited when
// limiter is non-nil.
func RegisterCustomer(e *echo.Echo, h *handler.HoldHandler, secureCookie bool, limiter echo.MiddlewareFunc) {
	g := e.Group("/api", middleware.HoldSession(secureCookie))

	limited := []echo.MiddlewareFunc{}
	if limiter != nil {
		limited = append(limited, limiter)
	}
	g.POST("/seats/hold", h.Hold, limited...)
	g.POST("/seats/release", h.Release)
	g.POST("/hold/attach-contact", h.AttachContact)
	g.POST("/hold/claim", h.Claim, limited...)
}
