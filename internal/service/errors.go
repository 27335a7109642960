package service

import (
	"errors"
	"fmt"
)

// Conflict kinds.  A *ConflictError unwraps to exactly one of these, so
// callers branch with errors.Is and read the details with errors.As.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrOwnershipMismatch = errors.New("ownership mismatch")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrValidation        = errors.New("validation error")
	ErrGroupConflict     = errors.New("group conflict")
)

// Reasons reported in ConflictError.Reason and SeatFailure.Reason.
const (
	ReasonTripNotFound     = "trip not found"
	ReasonSeatNotFound     = "seat not found"
	ReasonTaken            = "taken"
	ReasonBooked           = "booked"
	ReasonNotHeld          = "not held"
	ReasonNotOwner         = "not owner"
	ReasonExpired          = "hold expired"
	ReasonMismatchedHolder = "held by another session"
	ReasonNothingHeld      = "nothing held"
	ReasonClaimInvalid     = "code invalid or expired"
	ReasonForbidden        = "forbidden"
	ReasonSeatsIneligible  = "some seats are not eligible"
)

// SeatFailure explains why one seat of a group operation was rejected.
type SeatFailure struct {
	SeatCode string `json:"seat_code"`
	Reason   string `json:"reason"`
}

// ConflictError is a business-rule rejection.  It never indicates a fault:
// the operation that returned it left every seat as it was.
type ConflictError struct {
	Kind   error
	Reason string
	Seats  []SeatFailure
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Reason)
}

func (e *ConflictError) Unwrap() error { return e.Kind }

func conflict(kind error, reason string) *ConflictError {
	return &ConflictError{Kind: kind, Reason: reason}
}

func invalid(reason string) *ConflictError {
	return conflict(ErrValidation, reason)
}
