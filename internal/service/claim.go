package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// ClaimInfo is returned when contact details are attached to a session's
// holds.  AdminWA is the trip operator's contact for the customer; the core
// sends nothing itself.
type ClaimInfo struct {
	ClaimCode string    `json:"claim_code"`
	SeatCodes []string  `json:"seat_codes"`
	HoldUntil time.Time `json:"hold_until"`
	AdminWA   string    `json:"admin_wa"`
}

// ClaimTransfer describes the seats a session took over with a claim code.
type ClaimTransfer struct {
	ClaimCode string    `json:"claim_code"`
	SeatCodes []string  `json:"seat_codes"`
	HoldUntil time.Time `json:"hold_until"`
}

// summarize returns the codes of seats and the earliest hold deadline, the
// point at which the group stops being bookable as a whole.
func summarize(seats []model.Seat) ([]string, time.Time) {
	codes := make([]string, 0, len(seats))
	var deadline time.Time
	for _, seat := range seats {
		codes = append(codes, seat.Code)
		if seat.HoldUntil != nil && (deadline.IsZero() || seat.HoldUntil.Before(deadline)) {
			deadline = *seat.HoldUntil
		}
	}
	return codes, deadline
}

// AttachContact records the customer's name and WhatsApp number on every
// seat of the trip that holdToken actively holds and stamps them with one
// fresh claim code.  Deadlines shorter than the claim extension are pushed
// out to it.  Fails with ErrInvalidState when the token holds nothing.
func (s *ReservationService) AttachContact(ctx context.Context, tripID uint64, holdToken, name, wa string) (*ClaimInfo, error) {
	holdToken = strings.TrimSpace(holdToken)
	name = strings.TrimSpace(name)
	wa = strings.TrimSpace(wa)
	switch {
	case tripID == 0:
		return nil, invalid("trip_id is required")
	case holdToken == "":
		return nil, invalid("hold token is required")
	case name == "":
		return nil, invalid("customer_name is required")
	case wa == "":
		return nil, invalid("customer_wa is required")
	}
	trip, err := s.activeTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	extendUntil := now.Add(s.claimExtend).Truncate(time.Second)
	var info ClaimInfo
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		code, err := s.unusedClaimCode(ctx, tx, tripID)
		if err != nil {
			return err
		}
		n, err := s.seats.AttachContactTx(ctx, tx, tripID, holdToken, name, wa, code, extendUntil, now)
		if err != nil {
			return fmt.Errorf("attach contact: %w", err)
		}
		if n == 0 {
			return conflict(ErrInvalidState, ReasonNothingHeld)
		}
		seats, err := s.seats.ListByClaimCodeTx(ctx, tx, tripID, code, now)
		if err != nil {
			return fmt.Errorf("list claimed seats: %w", err)
		}
		codes, deadline := summarize(seats)
		info = ClaimInfo{ClaimCode: code, SeatCodes: codes, HoldUntil: deadline, AdminWA: trip.AdminWA}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *ReservationService) unusedClaimCode(ctx context.Context, tx *sql.Tx, tripID uint64) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := newClaimCode()
		if err != nil {
			return "", fmt.Errorf("generate claim code: %w", err)
		}
		used, err := s.seats.ClaimCodeInUseTx(ctx, tx, tripID, code)
		if err != nil {
			return "", fmt.Errorf("check claim code: %w", err)
		}
		if !used {
			return code, nil
		}
	}
	return "", fmt.Errorf("generate claim code: no unused code after %d attempts", codeAttempts)
}

// ClaimByCode moves every live hold of the trip carrying claimCode to
// newHoldToken, keeping the deadline and the claim code.  The whole group
// moves in one statement, so it either transfers entirely or not at all.
// A non-empty wa replaces the stored WhatsApp number.  Expired holds are
// not claimable.
func (s *ReservationService) ClaimByCode(ctx context.Context, tripID uint64, claimCode, newHoldToken, wa string) (*ClaimTransfer, error) {
	claimCode = NormalizeCode(claimCode)
	newHoldToken = strings.TrimSpace(newHoldToken)
	wa = strings.TrimSpace(wa)
	switch {
	case tripID == 0:
		return nil, invalid("trip_id is required")
	case claimCode == "":
		return nil, invalid("claim_code is required")
	case newHoldToken == "":
		return nil, invalid("hold token is required")
	}
	if _, err := s.activeTrip(ctx, tripID); err != nil {
		return nil, err
	}
	var waArg *string
	if wa != "" {
		waArg = &wa
	}

	now := s.now()
	var out ClaimTransfer
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		n, err := s.seats.TransferClaimTx(ctx, tx, tripID, claimCode, newHoldToken, waArg, now)
		if err != nil {
			return fmt.Errorf("transfer claim: %w", err)
		}
		if n == 0 {
			return conflict(ErrOwnershipMismatch, ReasonClaimInvalid)
		}
		seats, err := s.seats.ListByClaimCodeTx(ctx, tx, tripID, claimCode, now)
		if err != nil {
			return fmt.Errorf("list claimed seats: %w", err)
		}
		codes, deadline := summarize(seats)
		out = ClaimTransfer{ClaimCode: claimCode, SeatCodes: codes, HoldUntil: deadline}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
