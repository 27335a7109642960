package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/service"
)

// kindNames are the machine-readable "kind" values of error responses.
var kindNames = map[error]string{
	service.ErrNotFound:          "not_found",
	service.ErrInvalidState:      "invalid_state",
	service.ErrOwnershipMismatch: "ownership_mismatch",
	service.ErrUnauthorized:      "unauthorized",
	service.ErrValidation:        "validation_error",
	service.ErrGroupConflict:     "group_conflict",
}

func statusFor(kind error) int {
	switch kind {
	case service.ErrValidation:
		return http.StatusBadRequest
	case service.ErrUnauthorized:
		return http.StatusForbidden
	case service.ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusConflict
	}
}

// writeError renders err.  Business conflicts become 4xx responses with the
// reason and, for group operations, the per-seat failures.  Anything else is
// a store fault: it is logged and reported as a bare 500.
func writeError(c echo.Context, err error) error {
	var ce *service.ConflictError
	if errors.As(err, &ce) {
		body := echo.Map{"error": ce.Reason, "kind": kindNames[ce.Kind]}
		if len(ce.Seats) > 0 {
			body["seats"] = ce.Seats
		}
		return c.JSON(statusFor(ce.Kind), body)
	}
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "kind": kindNames[service.ErrValidation]})
}
