package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
	"github.com/iliyamo/bus-seat-reservation/internal/service"
)

func TestSweep_ReleasesOnlyExpiredHolds(t *testing.T) {
	f := newFixture(t, "S1", "S2", "S3")
	ctx := context.Background()
	f.hold(t, "S1", "tok1")
	_, err := f.svc.AttachContact(ctx, f.trip, "tok1", "Budi", "6281")
	require.NoError(t, err)
	f.advance(10 * time.Minute)
	f.hold(t, "S2", "tok2")
	f.hold(t, "S3", "tok3")
	_, err = f.svc.GenerateBookingCodeAndBook(ctx, staff, f.trip, []string{"S3"})
	require.NoError(t, err)

	f.advance(6 * time.Minute)
	released, err := f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, released)

	s1 := f.seat(t, "S1")
	assert.Equal(t, model.SeatAvailable, s1.Status)
	assert.Nil(t, s1.HoldToken)
	assert.Nil(t, s1.HoldUntil)
	assert.Nil(t, s1.ClaimCode)
	assert.Nil(t, s1.CustomerName)
	assert.Equal(t, model.SeatHold, f.seat(t, "S2").Status)
	assert.Equal(t, model.SeatBooked, f.seat(t, "S3").Status)

	released, err = f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, released)
}

func TestSweep_SpansBatches(t *testing.T) {
	codes := []string{"A1", "A2", "A3", "A4", "A5"}
	f := newFixture(t, codes...)
	f.svc = service.NewReservationService(repository.NewTripRepo(f.db), f.seats, service.Options{
		SweepBatch: 2,
		Clock:      func() time.Time { return f.now },
	})
	for _, code := range codes {
		f.hold(t, code, "tok1")
	}
	f.advance(time.Hour)

	released, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, len(codes), released)
}

func TestSeatMap_ShowsEffectiveStatusWithoutMutating(t *testing.T) {
	f := newFixture(t, "A1", "A2", "A3")
	ctx := context.Background()
	f.hold(t, "A1", "mine")
	f.advance(10 * time.Minute)
	f.hold(t, "A2", "mine")
	f.hold(t, "A3", "theirs")
	f.advance(6 * time.Minute)

	m, err := f.svc.SeatMap(ctx, f.trip, "mine")
	require.NoError(t, err)
	assert.Equal(t, f.trip, m.Trip.ID)
	require.Len(t, m.Seats, 3)

	byCode := map[string]service.SeatView{}
	for _, v := range m.Seats {
		byCode[v.Code] = v
	}
	assert.Equal(t, model.SeatAvailable, byCode["A1"].Status)
	assert.False(t, byCode["A1"].HeldByYou)
	assert.Equal(t, model.SeatHold, byCode["A2"].Status)
	assert.True(t, byCode["A2"].HeldByYou)
	require.NotNil(t, byCode["A2"].HoldUntil)
	assert.Equal(t, t0.Add(25*time.Minute), *byCode["A2"].HoldUntil)
	assert.Equal(t, model.SeatHold, byCode["A3"].Status)
	assert.False(t, byCode["A3"].HeldByYou)
	assert.Nil(t, byCode["A3"].HoldUntil)

	// the expired row is still HOLD in storage until a sweep runs
	assert.Equal(t, model.SeatHold, f.seat(t, "A1").Status)
}

func TestSeatMap_UnknownTrip(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SeatMap(context.Background(), f.trip+100, "")
	requireConflict(t, err, service.ErrNotFound, service.ReasonTripNotFound)
}
