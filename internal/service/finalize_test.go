package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/service"
)

func TestGenerateBookingCodeAndBook(t *testing.T) {
	f := newFixture(t, "A1", "A2")
	ctx := context.Background()
	f.hold(t, "A1", "tok1")
	f.hold(t, "A2", "tok1")
	_, err := f.svc.AttachContact(ctx, f.trip, "tok1", "Budi", "628123")
	require.NoError(t, err)

	f.advance(time.Minute)
	res, err := f.svc.GenerateBookingCodeAndBook(ctx, staff, f.trip, []string{"a1", "A2", "A1"})
	require.NoError(t, err)
	assert.Regexp(t, `^BK-[0-9A-F]{6}$`, res.BookingCode)
	assert.ElementsMatch(t, []string{"A1", "A2"}, res.SeatCodes)
	assert.Equal(t, t0.Add(time.Minute), res.BookedAt)

	for _, code := range []string{"A1", "A2"} {
		s := f.seat(t, code)
		assert.Equal(t, model.SeatBooked, s.Status)
		require.NotNil(t, s.BookingCode)
		assert.Equal(t, res.BookingCode, *s.BookingCode)
		assert.Nil(t, s.HoldToken)
		assert.Nil(t, s.HoldUntil)
		assert.Nil(t, s.ClaimCode)
		require.NotNil(t, s.BookedAt)
	}

	require.Len(t, f.pub.events, 1)
	ev := f.pub.events[0]
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, res.BookingCode, ev.BookingCode)
	assert.Equal(t, f.trip, ev.TripID)
	assert.Equal(t, "Budi", ev.CustomerName)
	assert.Equal(t, "628123", ev.CustomerWA)
	assert.Equal(t, "staff:ops", ev.BookedBy)
}

func TestBook_GroupIsAllOrNothing(t *testing.T) {
	f := newFixture(t, "S1", "S2")
	f.hold(t, "S1", "tok1")

	_, err := f.svc.GenerateBookingCodeAndBook(context.Background(), staff, f.trip, []string{"S1", "S2"})
	ce := requireConflict(t, err, service.ErrGroupConflict, service.ReasonSeatsIneligible)
	assert.Equal(t, []service.SeatFailure{{SeatCode: "S2", Reason: service.ReasonNotHeld}}, ce.Seats)

	s1 := f.seat(t, "S1")
	assert.Equal(t, model.SeatHold, s1.Status)
	assert.Nil(t, s1.BookingCode)
	assert.Empty(t, f.pub.events)
}

func TestBook_RejectsMixedHolders(t *testing.T) {
	f := newFixture(t, "S1", "S2", "S3")
	f.hold(t, "S1", "tokA")
	f.hold(t, "S2", "tokB")

	_, err := f.svc.GenerateBookingCodeAndBook(context.Background(), staff, f.trip, []string{"S1", "S2", "S3", "Z9"})
	ce := requireConflict(t, err, service.ErrGroupConflict, service.ReasonSeatsIneligible)
	assert.Equal(t, []service.SeatFailure{
		{SeatCode: "S2", Reason: service.ReasonMismatchedHolder},
		{SeatCode: "S3", Reason: service.ReasonNotHeld},
		{SeatCode: "Z9", Reason: service.ReasonSeatNotFound},
	}, ce.Seats)
	assert.Equal(t, model.SeatHold, f.seat(t, "S1").Status)
	assert.Equal(t, model.SeatHold, f.seat(t, "S2").Status)
}

func TestBook_ProcessesSeatsInCodeOrder(t *testing.T) {
	f := newFixture(t, "S1", "S2", "S3")
	ctx := context.Background()
	f.hold(t, "S1", "tokA")
	f.hold(t, "S2", "tokB")

	_, err := f.svc.GenerateBookingCodeAndBook(ctx, staff, f.trip, []string{"S2", "s1"})
	ce := requireConflict(t, err, service.ErrGroupConflict, service.ReasonSeatsIneligible)
	assert.Equal(t, []service.SeatFailure{{SeatCode: "S2", Reason: service.ReasonMismatchedHolder}}, ce.Seats)

	f.hold(t, "S3", "tokA")
	res, err := f.svc.GenerateBookingCodeAndBook(ctx, staff, f.trip, []string{"S3", "S1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S3"}, res.SeatCodes)
}

func TestBook_ExpiredHoldIsNeverFinalized(t *testing.T) {
	f := newFixture(t, "S1")
	f.hold(t, "S1", "tok1")
	f.advance(service.DefaultHoldTTL + time.Second)

	_, err := f.svc.GenerateBookingCodeAndBook(context.Background(), staff, f.trip, []string{"S1"})
	ce := requireConflict(t, err, service.ErrGroupConflict, service.ReasonSeatsIneligible)
	assert.Equal(t, []service.SeatFailure{{SeatCode: "S1", Reason: service.ReasonExpired}}, ce.Seats)
	assert.Equal(t, model.SeatHold, f.seat(t, "S1").Status)
}

func TestBook_AlreadyBooked(t *testing.T) {
	f := newFixture(t, "S1")
	ctx := context.Background()
	f.hold(t, "S1", "tok1")
	_, err := f.svc.GenerateBookingCodeAndBook(ctx, staff, f.trip, []string{"S1"})
	require.NoError(t, err)

	_, err = f.svc.GenerateBookingCodeAndBook(ctx, staff, f.trip, []string{"S1"})
	ce := requireConflict(t, err, service.ErrGroupConflict, service.ReasonSeatsIneligible)
	assert.Equal(t, service.ReasonBooked, ce.Seats[0].Reason)
}

func TestBook_Unauthorized(t *testing.T) {
	f := newFixture(t, "S1")
	f.hold(t, "S1", "tok1")

	_, err := f.svc.GenerateBookingCodeAndBook(context.Background(), service.AuthorizationDecision{}, f.trip, []string{"S1"})
	requireConflict(t, err, service.ErrUnauthorized, service.ReasonForbidden)
	assert.Equal(t, model.SeatHold, f.seat(t, "S1").Status)
}

func TestBook_Validation(t *testing.T) {
	f := newFixture(t, "S1")
	ctx := context.Background()

	_, err := f.svc.GenerateBookingCodeAndBook(ctx, staff, f.trip, []string{" ", ""})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = f.svc.GenerateBookingCodeAndBook(ctx, staff, f.trip+100, []string{"S1"})
	requireConflict(t, err, service.ErrNotFound, service.ReasonTripNotFound)
}

func TestConfirmBooked_LegacyHasNoBookingCode(t *testing.T) {
	f := newFixture(t, "S1")
	f.hold(t, "S1", "tok1")

	res, err := f.svc.ConfirmBooked(context.Background(), staff, f.trip, []string{"S1"})
	require.NoError(t, err)
	assert.Empty(t, res.BookingCode)

	s := f.seat(t, "S1")
	assert.Equal(t, model.SeatBooked, s.Status)
	assert.Nil(t, s.BookingCode)
}

func TestBook_PublishFailureDoesNotUndoBooking(t *testing.T) {
	f := newFixture(t, "S1")
	f.pub.err = errors.New("broker down")
	f.hold(t, "S1", "tok1")

	res, err := f.svc.GenerateBookingCodeAndBook(context.Background(), staff, f.trip, []string{"S1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.BookingCode)
	assert.Equal(t, model.SeatBooked, f.seat(t, "S1").Status)
}

func TestEndToEnd_HoldClaimTransferBook(t *testing.T) {
	f := newFixture(t, "A1")
	ctx := context.Background()

	held, err := f.svc.Acquire(ctx, f.trip, "A1", "tok1", 0)
	require.NoError(t, err)
	assert.Equal(t, model.SeatHold, held.Status)
	assert.Equal(t, t0.Add(15*time.Minute), held.HoldUntil)

	info, err := f.svc.AttachContact(ctx, f.trip, "tok1", "Budi", "62812")
	require.NoError(t, err)

	_, err = f.svc.ClaimByCode(ctx, f.trip, info.ClaimCode, "tok2", "")
	require.NoError(t, err)
	s := f.seat(t, "A1")
	require.NotNil(t, s.HoldToken)
	assert.Equal(t, "tok2", *s.HoldToken)

	res, err := f.svc.GenerateBookingCodeAndBook(ctx, staff, f.trip, []string{"A1"})
	require.NoError(t, err)
	s = f.seat(t, "A1")
	assert.Equal(t, model.SeatBooked, s.Status)
	require.NotNil(t, s.BookingCode)
	assert.Equal(t, res.BookingCode, *s.BookingCode)

	_, err = f.svc.Acquire(ctx, f.trip, "A1", "tok3", 0)
	requireConflict(t, err, service.ErrInvalidState, service.ReasonBooked)
}
