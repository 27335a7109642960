package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-reservation/internal/database/dbtest"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/queue"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
	"github.com/iliyamo/bus-seat-reservation/internal/service"
)

var t0 = time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

var staff = service.AuthorizationDecision{Authorized: true, Actor: "staff:ops"}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingConfirmedEvent
	err    error
}

func (p *recordingPublisher) PublishBookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type fixture struct {
	db    *sql.DB
	seats *repository.SeatRepo
	svc   *service.ReservationService
	pub   *recordingPublisher
	trip  uint64
	now   time.Time
}

// newFixture builds a service over a fresh database holding one active trip
// with the given seats.  The service clock starts at t0 and only moves via
// advance.
func newFixture(t *testing.T, codes ...string) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	f := &fixture{
		db:    db,
		seats: repository.NewSeatRepo(db),
		pub:   &recordingPublisher{},
		now:   t0,
	}
	f.trip = dbtest.InsertTrip(t, db, dbtest.Trip{Active: true, AdminWA: "6281100000000"})
	require.NoError(t, f.seats.CreateBulk(context.Background(), f.trip, codes, t0))
	f.svc = service.NewReservationService(repository.NewTripRepo(db), f.seats, service.Options{
		Publisher: f.pub,
		Clock:     func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) seat(t *testing.T, code string) *model.Seat {
	t.Helper()
	s, err := f.seats.Get(context.Background(), f.trip, code)
	require.NoError(t, err)
	return s
}

func (f *fixture) hold(t *testing.T, code, token string) {
	t.Helper()
	_, err := f.svc.Acquire(context.Background(), f.trip, code, token, 0)
	require.NoError(t, err)
}

// requireConflict asserts err is a *ConflictError of kind with reason.
func requireConflict(t *testing.T, err error, kind error, reason string) *service.ConflictError {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, kind)
	var ce *service.ConflictError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, reason, ce.Reason)
	return ce
}
