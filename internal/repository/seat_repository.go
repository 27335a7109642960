package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx so that each query is
// written once and used inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SeatRepo provides access to the seats table.  All timestamps passed in
// are expected to be UTC; expiry comparisons are made against the `now`
// supplied by the caller rather than the database clock so that a single
// request sees one consistent instant.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo returns a SeatRepo bound to db.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// DB exposes the underlying handle so callers can begin transactions.
func (r *SeatRepo) DB() *sql.DB { return r.db }

const seatColumns = `id, trip_id, code, status, hold_token, hold_until, claim_code,
                     customer_name, customer_wa, booking_code, booked_at, updated_at`

func scanSeat(row interface{ Scan(...any) error }) (*model.Seat, error) {
	var (
		s                               model.Seat
		status                          string
		token, claim, name, wa, booking sql.NullString
		holdUntil, bookedAt             sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.TripID, &s.Code, &status, &token, &holdUntil, &claim,
		&name, &wa, &booking, &bookedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Status = model.SeatStatus(status)
	s.HoldToken = nullString(token)
	s.ClaimCode = nullString(claim)
	s.CustomerName = nullString(name)
	s.CustomerWA = nullString(wa)
	s.BookingCode = nullString(booking)
	s.HoldUntil = nullTime(holdUntil)
	s.BookedAt = nullTime(bookedAt)
	return &s, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}

func collectSeats(rows *sql.Rows) ([]model.Seat, error) {
	defer rows.Close()
	seats := []model.Seat{}
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, *s)
	}
	return seats, rows.Err()
}

// CreateBulk inserts AVAILABLE seats with the given codes for a trip.  It is
// used by catalog setup; the (trip_id, code) unique key rejects duplicates.
func (r *SeatRepo) CreateBulk(ctx context.Context, tripID uint64, codes []string, now time.Time) error {
	if len(codes) == 0 {
		return nil
	}
	query := `INSERT INTO seats (trip_id, code, status, updated_at) VALUES `
	args := make([]interface{}, 0, len(codes)*4)
	for i, code := range codes {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, tripID, code, string(model.SeatAvailable), now)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

func getSeat(ctx context.Context, q querier, tripID uint64, code string) (*model.Seat, error) {
	s, err := scanSeat(q.QueryRowContext(ctx,
		`SELECT `+seatColumns+` FROM seats WHERE trip_id = ? AND code = ?`, tripID, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSeatNotFound
	}
	return s, err
}

// Get returns a single seat or ErrSeatNotFound.
func (r *SeatRepo) Get(ctx context.Context, tripID uint64, code string) (*model.Seat, error) {
	return getSeat(ctx, r.db, tripID, code)
}

// GetTx is Get executed inside tx.
func (r *SeatRepo) GetTx(ctx context.Context, tx *sql.Tx, tripID uint64, code string) (*model.Seat, error) {
	return getSeat(ctx, tx, tripID, code)
}

// ListByTrip returns every seat of a trip ordered by code.
func (r *SeatRepo) ListByTrip(ctx context.Context, tripID uint64) ([]model.Seat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+seatColumns+` FROM seats WHERE trip_id = ? ORDER BY code`, tripID)
	if err != nil {
		return nil, err
	}
	return collectSeats(rows)
}

// ListByCodesTx returns the named seats of a trip that exist, ordered by code.
func (r *SeatRepo) ListByCodesTx(ctx context.Context, tx *sql.Tx, tripID uint64, codes []string) ([]model.Seat, error) {
	if len(codes) == 0 {
		return []model.Seat{}, nil
	}
	args := make([]interface{}, 0, len(codes)+1)
	args = append(args, tripID)
	for _, c := range codes {
		args = append(args, c)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(codes)), ",")
	rows, err := tx.QueryContext(ctx,
		`SELECT `+seatColumns+` FROM seats WHERE trip_id = ? AND code IN (`+placeholders+`) ORDER BY code`,
		args...)
	if err != nil {
		return nil, err
	}
	return collectSeats(rows)
}

// ClaimCodeInUseTx reports whether any seat of the trip currently carries code.
func (r *SeatRepo) ClaimCodeInUseTx(ctx context.Context, tx *sql.Tx, tripID uint64, code string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seats WHERE trip_id = ? AND claim_code = ?`, tripID, code).Scan(&n)
	return n > 0, err
}

// BookingCodeExistsTx reports whether a booking code has already been issued
// on any trip.
func (r *SeatRepo) BookingCodeExistsTx(ctx context.Context, tx *sql.Tx, code string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seats WHERE booking_code = ?`, code).Scan(&n)
	return n > 0, err
}

// BookHeldTx moves one seat from HOLD to BOOKED, provided the hold is still
// active at now and belongs to groupToken.  bookingCode may be nil for the
// legacy confirmation path.  It returns false when the seat was not in the
// expected state; the caller must then roll back the surrounding tx.
func (r *SeatRepo) BookHeldTx(ctx context.Context, tx *sql.Tx, tripID uint64, code, groupToken string, bookingCode *string, now time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE seats
         SET status = 'BOOKED', booking_code = ?, booked_at = ?,
             hold_token = NULL, hold_until = NULL, claim_code = NULL, updated_at = ?
         WHERE trip_id = ? AND code = ? AND status = 'HOLD' AND hold_token = ? AND hold_until >= ?`,
		bookingCode, now, now, tripID, code, groupToken, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
