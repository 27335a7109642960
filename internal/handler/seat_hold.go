package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/middleware"
	"github.com/iliyamo/bus-seat-reservation/internal/service"
)

// HoldHandler serves the customer hold flow.  Every route it handles runs
// behind middleware.HoldSession, so the session always has a hold token.
type HoldHandler struct {
	Svc *service.ReservationService
}

type seatRequest struct {
	TripID   uint64 `json:"trip_id"`
	SeatCode string `json:"seat_code"`
}

type contactRequest struct {
	TripID       uint64 `json:"trip_id"`
	CustomerName string `json:"customer_name"`
	CustomerWA   string `json:"customer_wa"`
}

type claimRequest struct {
	TripID     uint64 `json:"trip_id"`
	ClaimCode  string `json:"claim_code"`
	CustomerWA string `json:"customer_wa"`
}

// Hold handles POST /api/seats/hold.
func (h *HoldHandler) Hold(c echo.Context) error {
	var req seatRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	res, err := h.Svc.Acquire(c.Request().Context(), req.TripID, req.SeatCode, middleware.HoldToken(c), 0)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Release handles POST /api/seats/release.
func (h *HoldHandler) Release(c echo.Context) error {
	var req seatRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.Svc.Release(c.Request().Context(), req.TripID, req.SeatCode, middleware.HoldToken(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"trip_id":   req.TripID,
		"seat_code": service.NormalizeCode(req.SeatCode),
		"released":  true,
	})
}

// AttachContact handles POST /api/hold/attach-contact.  The response carries
// the claim code and the operator's WhatsApp number for the customer.
func (h *HoldHandler) AttachContact(c echo.Context) error {
	var req contactRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	info, err := h.Svc.AttachContact(c.Request().Context(), req.TripID, middleware.HoldToken(c), req.CustomerName, req.CustomerWA)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, info)
}

// Claim handles POST /api/hold/claim: the current session takes over the
// holds carrying claim_code.
func (h *HoldHandler) Claim(c echo.Context) error {
	var req claimRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	res, err := h.Svc.ClaimByCode(c.Request().Context(), req.TripID, req.ClaimCode, middleware.HoldToken(c), req.CustomerWA)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
