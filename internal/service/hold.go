package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
)

// HoldResult describes a seat after a successful acquire.
type HoldResult struct {
	TripID    uint64           `json:"trip_id"`
	SeatCode  string           `json:"seat_code"`
	Status    model.SeatStatus `json:"status"`
	HoldUntil time.Time        `json:"hold_until"`
}

// Acquire holds one seat for holdToken until now+ttl (the configured hold
// TTL when ttl <= 0).  Holding a seat the token already holds refreshes the
// deadline.  A hold whose deadline has passed is taken over even if the
// sweeper has not released it yet.
func (s *ReservationService) Acquire(ctx context.Context, tripID uint64, seatCode, holdToken string, ttl time.Duration) (*HoldResult, error) {
	seatCode = NormalizeCode(seatCode)
	holdToken = strings.TrimSpace(holdToken)
	switch {
	case tripID == 0:
		return nil, invalid("trip_id is required")
	case seatCode == "":
		return nil, invalid("seat_code is required")
	case holdToken == "":
		return nil, invalid("hold token is required")
	}
	if ttl <= 0 {
		ttl = s.holdTTL
	}
	if _, err := s.activeTrip(ctx, tripID); err != nil {
		return nil, err
	}

	now := s.now()
	until := now.Add(ttl).Truncate(time.Second)
	ok, err := s.seats.AcquireHold(ctx, tripID, seatCode, holdToken, until, now)
	if err != nil {
		return nil, fmt.Errorf("acquire seat %s: %w", seatCode, err)
	}
	if !ok {
		return nil, s.acquireConflict(ctx, tripID, seatCode)
	}
	return &HoldResult{TripID: tripID, SeatCode: seatCode, Status: model.SeatHold, HoldUntil: until}, nil
}

// acquireConflict reads the seat after a rejected acquire to report why.
func (s *ReservationService) acquireConflict(ctx context.Context, tripID uint64, seatCode string) error {
	seat, err := s.seats.Get(ctx, tripID, seatCode)
	if errors.Is(err, repository.ErrSeatNotFound) {
		return conflict(ErrNotFound, ReasonSeatNotFound)
	}
	if err != nil {
		return fmt.Errorf("load seat %s: %w", seatCode, err)
	}
	if seat.Status == model.SeatBooked {
		return conflict(ErrInvalidState, ReasonBooked)
	}
	// Either held by another live session, or it changed hands between the
	// update and this read; both mean someone else has it.
	return conflict(ErrInvalidState, ReasonTaken)
}

// Release gives up a seat held by holdToken.  Releasing a seat that is not
// held, or is held by another token, is reported and changes nothing.
func (s *ReservationService) Release(ctx context.Context, tripID uint64, seatCode, holdToken string) error {
	seatCode = NormalizeCode(seatCode)
	holdToken = strings.TrimSpace(holdToken)
	switch {
	case tripID == 0:
		return invalid("trip_id is required")
	case seatCode == "":
		return invalid("seat_code is required")
	case holdToken == "":
		return invalid("hold token is required")
	}

	ok, err := s.seats.ReleaseHold(ctx, tripID, seatCode, holdToken, s.now())
	if err != nil {
		return fmt.Errorf("release seat %s: %w", seatCode, err)
	}
	if ok {
		return nil
	}
	seat, err := s.seats.Get(ctx, tripID, seatCode)
	if errors.Is(err, repository.ErrSeatNotFound) {
		return conflict(ErrNotFound, ReasonSeatNotFound)
	}
	if err != nil {
		return fmt.Errorf("load seat %s: %w", seatCode, err)
	}
	switch seat.Status {
	case model.SeatBooked:
		return conflict(ErrInvalidState, ReasonBooked)
	case model.SeatHold:
		return conflict(ErrOwnershipMismatch, ReasonNotOwner)
	default:
		return conflict(ErrInvalidState, ReasonNotHeld)
	}
}
