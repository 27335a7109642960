package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/middleware"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/service"
)

// PublicHandler serves the unauthenticated browse endpoints: trip list and
// seat map.
type PublicHandler struct {
	Svc *service.ReservationService
}

// PublicTrip is a trip as exposed to customers.  The operator contact is
// withheld until the customer has claimed seats.
type PublicTrip struct {
	ID            uint64    `json:"id"`
	Title         string    `json:"title"`
	BusType       string    `json:"bus_type"`
	RouteFrom     string    `json:"route_from"`
	RouteTo       string    `json:"route_to"`
	DepartAt      time.Time `json:"depart_at"`
	Price         uint32    `json:"price"`
	Description   string    `json:"description,omitempty"`
	CapacityTotal uint32    `json:"capacity_total"`
	BusImage      string    `json:"bus_image,omitempty"`
}

func toPublicTrip(t model.Trip) PublicTrip {
	return PublicTrip{
		ID:            t.ID,
		Title:         t.Title,
		BusType:       t.BusType,
		RouteFrom:     t.RouteFrom,
		RouteTo:       t.RouteTo,
		DepartAt:      t.DepartAt.UTC(),
		Price:         t.Price,
		Description:   t.Description,
		CapacityTotal: t.CapacityTotal,
		BusImage:      t.BusImage,
	}
}

// sweepFirst releases expired holds before a read that shows availability.
// A failed sweep does not fail the read: the seat map already reports
// expired holds as available.
func (h *PublicHandler) sweepFirst(c echo.Context) {
	if _, err := h.Svc.Sweep(c.Request().Context()); err != nil {
		c.Logger().Warnf("opportunistic sweep failed: %v", err)
	}
}

// ListTrips handles GET /api/trips.
func (h *PublicHandler) ListTrips(c echo.Context) error {
	h.sweepFirst(c)
	trips, err := h.Svc.ListTrips(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]PublicTrip, 0, len(trips))
	for _, t := range trips {
		out = append(out, toPublicTrip(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"trips": out})
}

// SeatMap handles GET /api/trips/:id/seats.  Seats held by the caller's
// session are flagged with held_by_you and their deadline.
func (h *PublicHandler) SeatMap(c echo.Context) error {
	tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tripID == 0 {
		return badRequest(c, "invalid trip id")
	}
	h.sweepFirst(c)
	m, err := h.Svc.SeatMap(c.Request().Context(), tripID, middleware.HoldToken(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"trip":  toPublicTrip(m.Trip),
		"seats": m.Seats,
	})
}
