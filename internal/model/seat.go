package model

import "time"

// SeatStatus is the state of a seat in the reservation state machine.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatHold      SeatStatus = "HOLD"
	SeatBooked    SeatStatus = "BOOKED"
)

// Seat is a single seat on a trip and the row every reservation transition
// operates on.  A seat is identified by (TripID, Code).
//
// Hold fields (HoldToken, HoldUntil, ClaimCode) are only set while the seat
// is in HOLD.  BookingCode and BookedAt are set once the seat is BOOKED.
// Customer fields are advisory contact details captured when a claim code
// is issued.
type Seat struct {
	ID           uint64     // seats.id
	TripID       uint64     // seats.trip_id
	Code         string     // seats.code, e.g. "A1"
	Status       SeatStatus // seats.status
	HoldToken    *string    // seats.hold_token (nullable)
	HoldUntil    *time.Time // seats.hold_until (nullable)
	ClaimCode    *string    // seats.claim_code (nullable)
	CustomerName *string    // seats.customer_name (nullable)
	CustomerWA   *string    // seats.customer_wa (nullable)
	BookingCode  *string    // seats.booking_code (nullable)
	BookedAt     *time.Time // seats.booked_at (nullable)
	UpdatedAt    time.Time  // seats.updated_at
}

// HoldActive reports whether the seat is held and the hold has not passed
// its deadline at now.
func (s Seat) HoldActive(now time.Time) bool {
	return s.Status == SeatHold && s.HoldUntil != nil && !s.HoldUntil.Before(now)
}

// HeldBy reports whether the seat is actively held by token at now.
func (s Seat) HeldBy(token string, now time.Time) bool {
	return s.HoldActive(now) && s.HoldToken != nil && *s.HoldToken == token
}

// EffectiveStatus is the status a reader should see at now: a hold past its
// deadline is reported as AVAILABLE even before the sweeper releases it.
func (s Seat) EffectiveStatus(now time.Time) SeatStatus {
	if s.Status == SeatHold && !s.HoldActive(now) {
		return SeatAvailable
	}
	return s.Status
}
