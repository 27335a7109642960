// Package service holds the seat reservation core: holds, claim codes,
// expiry sweeps and the administrator booking step.  Every seat transition
// is delegated to a conditional UPDATE in the repository layer; the service
// validates input, groups multi-seat operations into one transaction and
// turns unmatched transitions into *ConflictError values.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/queue"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
)

const (
	DefaultHoldTTL     = 15 * time.Minute
	DefaultClaimExtend = 15 * time.Minute
	defaultSweepBatch  = 500
	codeAttempts       = 5
)

// BookingEventPublisher delivers booking events after the booking commits.
type BookingEventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// Options tunes a ReservationService.  Zero values pick the defaults.
type Options struct {
	HoldTTL     time.Duration
	ClaimExtend time.Duration
	SweepBatch  int
	Publisher   BookingEventPublisher
	Logger      *slog.Logger
	Clock       func() time.Time
}

// ReservationService implements the hold, claim, sweep and booking
// operations on top of the trip and seat repositories.  It is safe for
// concurrent use; all shared state lives in the database.
type ReservationService struct {
	trips       *repository.TripRepo
	seats       *repository.SeatRepo
	publisher   BookingEventPublisher
	log         *slog.Logger
	holdTTL     time.Duration
	claimExtend time.Duration
	sweepBatch  int
	clock       func() time.Time
}

// NewReservationService wires the service.  Both repositories are required.
func NewReservationService(trips *repository.TripRepo, seats *repository.SeatRepo, opts Options) *ReservationService {
	if trips == nil || seats == nil {
		panic("nil repository passed to NewReservationService")
	}
	s := &ReservationService{
		trips:       trips,
		seats:       seats,
		publisher:   opts.Publisher,
		log:         opts.Logger,
		holdTTL:     opts.HoldTTL,
		claimExtend: opts.ClaimExtend,
		sweepBatch:  opts.SweepBatch,
		clock:       opts.Clock,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.holdTTL <= 0 {
		s.holdTTL = DefaultHoldTTL
	}
	if s.claimExtend < 0 {
		s.claimExtend = 0
	} else if s.claimExtend == 0 {
		s.claimExtend = DefaultClaimExtend
	}
	if s.sweepBatch <= 0 {
		s.sweepBatch = defaultSweepBatch
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

// now is truncated to whole seconds, the resolution of the DATETIME columns.
func (s *ReservationService) now() time.Time {
	return s.clock().UTC().Truncate(time.Second)
}

// activeTrip loads a trip that customers may act on.  Inactive trips are
// reported as not found.
func (s *ReservationService) activeTrip(ctx context.Context, tripID uint64) (*model.Trip, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if errors.Is(err, repository.ErrTripNotFound) {
		return nil, conflict(ErrNotFound, ReasonTripNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load trip %d: %w", tripID, err)
	}
	if !trip.IsActive {
		return nil, conflict(ErrNotFound, ReasonTripNotFound)
	}
	return trip, nil
}

// inTx runs fn in a transaction and commits only when fn returns nil.
func (s *ReservationService) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.seats.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// ListTrips returns the active trips ordered by departure.
func (s *ReservationService) ListTrips(ctx context.Context) ([]model.Trip, error) {
	trips, err := s.trips.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	return trips, nil
}

// SeatView is one entry of a seat map as seen by a particular session.
type SeatView struct {
	Code      string           `json:"code"`
	Status    model.SeatStatus `json:"status"`
	HeldByYou bool             `json:"held_by_you"`
	HoldUntil *time.Time       `json:"hold_until,omitempty"`
}

// SeatMap is the availability of every seat on a trip.
type SeatMap struct {
	Trip  model.Trip
	Seats []SeatView
}

// SeatMap reports the effective status of every seat of a trip.  Holds past
// their deadline read as AVAILABLE whether or not a sweep has run; the map
// itself never mutates seats.  holdToken may be empty for a session that
// holds nothing.
func (s *ReservationService) SeatMap(ctx context.Context, tripID uint64, holdToken string) (*SeatMap, error) {
	if tripID == 0 {
		return nil, invalid("trip_id is required")
	}
	trip, err := s.activeTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	seats, err := s.seats.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	now := s.now()
	views := make([]SeatView, 0, len(seats))
	for _, seat := range seats {
		v := SeatView{Code: seat.Code, Status: seat.EffectiveStatus(now)}
		if holdToken != "" && seat.HeldBy(holdToken, now) {
			v.HeldByYou = true
			v.HoldUntil = seat.HoldUntil
		}
		views = append(views, v)
	}
	return &SeatMap{Trip: *trip, Seats: views}, nil
}
