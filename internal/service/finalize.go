package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/queue"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
)

// AuthorizationDecision is the outcome of the caller's operator check.  The
// core does not know how it was reached (staff login, API key); Actor is only
// recorded for audit.
type AuthorizationDecision struct {
	Authorized bool
	Actor      string
}

// BookingResult describes a finalized booking.  BookingCode is empty for the
// legacy confirmation path.
type BookingResult struct {
	TripID      uint64    `json:"trip_id"`
	BookingCode string    `json:"booking_code,omitempty"`
	SeatCodes   []string  `json:"seat_codes"`
	BookedAt    time.Time `json:"booked_at"`
}

// GenerateBookingCodeAndBook turns the named held seats into one booking with
// a fresh booking code.  Every seat must be in a live hold and all of them
// must belong to the same session; otherwise nothing is modified and the
// returned *ConflictError lists each failing seat.
//
// A booking is one customer's group: the session holding the first seat (in
// seat code order) that is in a live hold defines it, and seats held by any
// other session fail with "held by another session".  Seats held by two
// sessions are booked with two calls.
func (s *ReservationService) GenerateBookingCodeAndBook(ctx context.Context, auth AuthorizationDecision, tripID uint64, seatCodes []string) (*BookingResult, error) {
	return s.book(ctx, auth, tripID, seatCodes, true)
}

// ConfirmBooked is the older confirmation flow: the same all-or-nothing
// HOLD to BOOKED transition, without a booking code.
//
// Deprecated: use GenerateBookingCodeAndBook.
func (s *ReservationService) ConfirmBooked(ctx context.Context, auth AuthorizationDecision, tripID uint64, seatCodes []string) (*BookingResult, error) {
	return s.book(ctx, auth, tripID, seatCodes, false)
}

func (s *ReservationService) book(ctx context.Context, auth AuthorizationDecision, tripID uint64, seatCodes []string, withCode bool) (*BookingResult, error) {
	if !auth.Authorized {
		return nil, conflict(ErrUnauthorized, ReasonForbidden)
	}
	// Seats are locked in code order so overlapping bookings cannot deadlock.
	codes := normalizeCodes(seatCodes)
	slices.Sort(codes)
	switch {
	case tripID == 0:
		return nil, invalid("trip_id is required")
	case len(codes) == 0:
		return nil, invalid("seat_codes must not be empty")
	}
	trip, err := s.trips.GetByID(ctx, tripID)
	if errors.Is(err, repository.ErrTripNotFound) {
		return nil, conflict(ErrNotFound, ReasonTripNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load trip %d: %w", tripID, err)
	}

	now := s.now()
	result := BookingResult{TripID: tripID, BookedAt: now}
	var booked []model.Seat
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var codeArg *string
		if withCode {
			code, err := s.unusedBookingCode(ctx, tx)
			if err != nil {
				return err
			}
			result.BookingCode = code
			codeArg = &code
		}

		group, err := s.groupToken(ctx, tx, tripID, codes, now)
		if err != nil {
			return err
		}
		var failures []SeatFailure
		for _, code := range codes {
			ok, err := s.seats.BookHeldTx(ctx, tx, tripID, code, group, codeArg, now)
			if err != nil {
				return fmt.Errorf("book seat %s: %w", code, err)
			}
			if ok {
				continue
			}
			reason, err := s.bookFailure(ctx, tx, tripID, code, group, now)
			if err != nil {
				return err
			}
			failures = append(failures, SeatFailure{SeatCode: code, Reason: reason})
		}
		if len(failures) > 0 {
			return &ConflictError{Kind: ErrGroupConflict, Reason: ReasonSeatsIneligible, Seats: failures}
		}
		booked, err = s.seats.ListByCodesTx(ctx, tx, tripID, codes)
		if err != nil {
			return fmt.Errorf("reload booked seats: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.SeatCodes = make([]string, 0, len(booked))
	for _, seat := range booked {
		result.SeatCodes = append(result.SeatCodes, seat.Code)
	}
	s.log.Info("booking finalized",
		slog.Uint64("trip_id", tripID),
		slog.String("booking_code", result.BookingCode),
		slog.Int("seats", len(result.SeatCodes)),
		slog.String("actor", auth.Actor))
	s.publishBooking(ctx, trip, booked, result, auth.Actor)
	return &result, nil
}

// groupToken picks the session the booking belongs to: the holder of the
// first seat, in code order, that is in a live hold.  An empty result means
// none of the seats is bookable.
func (s *ReservationService) groupToken(ctx context.Context, tx *sql.Tx, tripID uint64, codes []string, now time.Time) (string, error) {
	for _, code := range codes {
		seat, err := s.seats.GetTx(ctx, tx, tripID, code)
		if errors.Is(err, repository.ErrSeatNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("load seat %s: %w", code, err)
		}
		if seat.HoldActive(now) && seat.HoldToken != nil {
			return *seat.HoldToken, nil
		}
	}
	return "", nil
}

func (s *ReservationService) bookFailure(ctx context.Context, tx *sql.Tx, tripID uint64, code, group string, now time.Time) (string, error) {
	seat, err := s.seats.GetTx(ctx, tx, tripID, code)
	if errors.Is(err, repository.ErrSeatNotFound) {
		return ReasonSeatNotFound, nil
	}
	if err != nil {
		return "", fmt.Errorf("load seat %s: %w", code, err)
	}
	switch {
	case seat.Status == model.SeatBooked:
		return ReasonBooked, nil
	case seat.Status == model.SeatAvailable:
		return ReasonNotHeld, nil
	case !seat.HoldActive(now):
		return ReasonExpired, nil
	case seat.HoldToken == nil || *seat.HoldToken != group:
		return ReasonMismatchedHolder, nil
	default:
		return ReasonNotHeld, nil
	}
}

func (s *ReservationService) unusedBookingCode(ctx context.Context, tx *sql.Tx) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := newBookingCode()
		if err != nil {
			return "", fmt.Errorf("generate booking code: %w", err)
		}
		exists, err := s.seats.BookingCodeExistsTx(ctx, tx, code)
		if err != nil {
			return "", fmt.Errorf("check booking code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("generate booking code: no unused code after %d attempts", codeAttempts)
}

// publishBooking is best effort: the booking is already committed, so a
// broker failure is logged and otherwise ignored.
func (s *ReservationService) publishBooking(ctx context.Context, trip *model.Trip, seats []model.Seat, res BookingResult, actor string) {
	if s.publisher == nil {
		return
	}
	ev := queue.BookingConfirmedEvent{
		EventID:     uuid.NewString(),
		TripID:      trip.ID,
		TripTitle:   trip.Title,
		RouteFrom:   trip.RouteFrom,
		RouteTo:     trip.RouteTo,
		DepartAt:    trip.DepartAt.UTC().Format(time.RFC3339),
		BookingCode: res.BookingCode,
		SeatCodes:   res.SeatCodes,
		BookedBy:    actor,
		BookedAt:    res.BookedAt.Format(time.RFC3339),
	}
	for _, seat := range seats {
		if ev.CustomerName == "" && seat.CustomerName != nil {
			ev.CustomerName = *seat.CustomerName
		}
		if ev.CustomerWA == "" && seat.CustomerWA != nil {
			ev.CustomerWA = *seat.CustomerWA
		}
	}
	if err := s.publisher.PublishBookingConfirmed(ctx, ev); err != nil {
		s.log.Warn("publish booking event failed",
			slog.Uint64("trip_id", trip.ID),
			slog.String("booking_code", res.BookingCode),
			slog.Any("error", err))
	}
}
