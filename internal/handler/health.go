package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is a liveness endpoint for load balancers.  It does not touch the
// database.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "bus-seat-reservation"})
}
