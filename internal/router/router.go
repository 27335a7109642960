// Package router wires handlers and middleware onto an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/handler"
	"github.com/iliyamo/bus-seat-reservation/internal/middleware"
)

// RegisterRoutes registers routes that need no session or credentials.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the browse endpoints.  The seat map runs behind
// HoldSession so it can flag the caller's own holds; the trip list may be
// fronted by the response cache.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, secureCookie bool, cache echo.MiddlewareFunc) {
	if cache != nil {
		e.GET("/api/trips", p.ListTrips, cache)
	} else {
		e.GET("/api/trips", p.ListTrips)
	}
	e.GET("/api/trips/:id/seats", p.SeatMap, middleware.HoldSession(secureCookie))
}
