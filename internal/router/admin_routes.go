package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/handler"
	"github.com/iliyamo/bus-seat-reservation/internal/middleware"
)

// RegisterAdmin registers operator endpoints.  StaffJWT and AdminDecision
// only compute the caller's authorization; the booking operations enforce
// it.  POST /api/expire is an idempotent sweep and stays open.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string, keys middleware.AdminKeys) {
	g := e.Group("/api/admin",
		middleware.StaffJWT(jwtSecret),
		middleware.AdminDecision(keys),
	)
	g.POST("/generate-booking-code", h.GenerateBookingCode)
	g.POST("/confirm-booked", h.ConfirmBooked)

	e.POST("/api/expire", h.Expire)
}
