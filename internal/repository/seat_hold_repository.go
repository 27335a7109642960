package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// AcquireHold places or refreshes a hold on one seat.  The transition is
// allowed from AVAILABLE, from a HOLD whose deadline is before now, or from
// a HOLD already owned by token (a refresh).  Contact and claim fields are
// kept on a refresh and cleared when the seat changes hands.
//
// The whole check-and-set is one UPDATE statement, so two concurrent
// callers on the same seat can never both succeed.  The SET list evaluates
// hold_token before overwriting it; MySQL applies assignments left to right.
func (r *SeatRepo) AcquireHold(ctx context.Context, tripID uint64, code, token string, until, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, acquireHoldSQL, acquireHoldArgs(tripID, code, token, until, now)...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

const acquireHoldSQL = `UPDATE seats
 SET claim_code    = CASE WHEN hold_token = ? THEN claim_code ELSE NULL END,
     customer_name = CASE WHEN hold_token = ? THEN customer_name ELSE NULL END,
     customer_wa   = CASE WHEN hold_token = ? THEN customer_wa ELSE NULL END,
     status = 'HOLD', hold_token = ?, hold_until = ?, updated_at = ?
 WHERE trip_id = ? AND code = ?
   AND (status = 'AVAILABLE'
        OR (status = 'HOLD' AND (hold_token = ? OR hold_until < ?)))`

func acquireHoldArgs(tripID uint64, code, token string, until, now time.Time) []any {
	return []any{
		token, token, token,
		token, until, now,
		tripID, code,
		token, now,
	}
}

// ReleaseHold returns a seat held by token to AVAILABLE.  It reports false
// when the seat is not in HOLD or is held by someone else.
func (r *SeatRepo) ReleaseHold(ctx context.Context, tripID uint64, code, token string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE seats
		 SET status = 'AVAILABLE', hold_token = NULL, hold_until = NULL, claim_code = NULL,
		     customer_name = NULL, customer_wa = NULL, updated_at = ?
		 WHERE trip_id = ? AND code = ? AND status = 'HOLD' AND hold_token = ?`,
		now, tripID, code, token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// AttachContactTx stamps contact details and a claim code on every seat of
// the trip actively held by token.  When extendUntil is later than a seat's
// current deadline the deadline is moved to extendUntil.  It returns the
// number of seats updated.
func (r *SeatRepo) AttachContactTx(ctx context.Context, tx *sql.Tx, tripID uint64, token, name, wa, claimCode string, extendUntil, now time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE seats
		 SET customer_name = ?, customer_wa = ?, claim_code = ?,
		     hold_until = CASE WHEN hold_until < ? THEN ? ELSE hold_until END,
		     updated_at = ?
		 WHERE trip_id = ? AND hold_token = ? AND status = 'HOLD' AND hold_until >= ?`,
		name, wa, claimCode,
		extendUntil, extendUntil,
		now,
		tripID, token, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// TransferClaimTx hands every active hold of the trip carrying claimCode to
// newToken.  Deadline and claim code are preserved; wa replaces the stored
// WhatsApp number when non-nil.  It returns the number of seats moved.
func (r *SeatRepo) TransferClaimTx(ctx context.Context, tx *sql.Tx, tripID uint64, claimCode, newToken string, wa *string, now time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE seats
		 SET hold_token = ?, customer_wa = COALESCE(?, customer_wa), updated_at = ?
		 WHERE trip_id = ? AND claim_code = ? AND status = 'HOLD' AND hold_until >= ?`,
		newToken, wa, now,
		tripID, claimCode, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByClaimCodeTx returns the active holds of a trip that carry claimCode.
func (r *SeatRepo) ListByClaimCodeTx(ctx context.Context, tx *sql.Tx, tripID uint64, claimCode string, now time.Time) ([]model.Seat, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+seatColumns+` FROM seats
		 WHERE trip_id = ? AND claim_code = ? AND status = 'HOLD' AND hold_until >= ?
		 ORDER BY code`, tripID, claimCode, now)
	if err != nil {
		return nil, err
	}
	return collectSeats(rows)
}

// ExpiredHold identifies a seat whose hold deadline had passed when it was
// read by ListExpired.
type ExpiredHold struct {
	SeatID   uint64
	TripID   uint64
	Code     string
	Deadline time.Time
}

// ListExpired returns up to limit holds whose deadline is before now.
func (r *SeatRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]ExpiredHold, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, trip_id, code, hold_until FROM seats
		 WHERE status = 'HOLD' AND hold_until < ?
		 ORDER BY hold_until LIMIT ?`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ExpiredHold
	for rows.Next() {
		var h ExpiredHold
		if err := rows.Scan(&h.SeatID, &h.TripID, &h.Code, &h.Deadline); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ExpireHold releases one seat, but only if it is still in HOLD with a
// deadline before now at the moment the update runs.  A hold refreshed
// after ListExpired read it is left untouched.
func (r *SeatRepo) ExpireHold(ctx context.Context, seatID uint64, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE seats
		 SET status = 'AVAILABLE', hold_token = NULL, hold_until = NULL, claim_code = NULL,
		     customer_name = NULL, customer_wa = NULL, updated_at = ?
		 WHERE id = ? AND status = 'HOLD' AND hold_until < ?`,
		now, seatID, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
