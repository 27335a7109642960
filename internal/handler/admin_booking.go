package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/middleware"
	"github.com/iliyamo/bus-seat-reservation/internal/service"
)

// AdminHandler serves the operator booking endpoints and housekeeping.
// Booking routes run behind middleware.AdminDecision; the decision is handed
// to the service, which rejects unauthorized calls.
type AdminHandler struct {
	Svc *service.ReservationService
}

type bookRequest struct {
	TripID    uint64   `json:"trip_id"`
	SeatCodes []string `json:"seat_codes"`
}

// GenerateBookingCode handles POST /api/admin/generate-booking-code.
func (h *AdminHandler) GenerateBookingCode(c echo.Context) error {
	return h.book(c, h.Svc.GenerateBookingCodeAndBook)
}

// ConfirmBooked handles POST /api/admin/confirm-booked, the older endpoint
// that books without issuing a booking code.
func (h *AdminHandler) ConfirmBooked(c echo.Context) error {
	return h.book(c, h.Svc.ConfirmBooked)
}

type bookFunc func(ctx context.Context, auth service.AuthorizationDecision, tripID uint64, seatCodes []string) (*service.BookingResult, error)

func (h *AdminHandler) book(c echo.Context, fn bookFunc) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	res, err := fn(c.Request().Context(), middleware.Decision(c), req.TripID, req.SeatCodes)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Expire handles POST /api/expire: an on-demand sweep for external
// schedulers.  It is idempotent and needs no credentials.
func (h *AdminHandler) Expire(c echo.Context) error {
	released, err := h.Svc.Sweep(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"released": released})
}
