package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// TripRepo provides read access to the trips table.  Trips are owned by
// catalog management; nothing in this repository mutates them.
type TripRepo struct {
	db *sql.DB
}

// NewTripRepo returns a TripRepo bound to db.
func NewTripRepo(db *sql.DB) *TripRepo { return &TripRepo{db: db} }

const tripColumns = `id, title, bus_type, route_from, route_to, depart_at, price, description,
                     capacity_total, is_active, admin_wa, bus_image, created_at`

func scanTrip(row interface{ Scan(...any) error }) (*model.Trip, error) {
	var t model.Trip
	if err := row.Scan(&t.ID, &t.Title, &t.BusType, &t.RouteFrom, &t.RouteTo, &t.DepartAt, &t.Price,
		&t.Description, &t.CapacityTotal, &t.IsActive, &t.AdminWA, &t.BusImage, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID returns the trip with the given id or ErrTripNotFound.
func (r *TripRepo) GetByID(ctx context.Context, id uint64) (*model.Trip, error) {
	t, err := scanTrip(r.db.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTripNotFound
	}
	return t, err
}

// ListActive returns all active trips ordered by departure time.
func (r *TripRepo) ListActive(ctx context.Context) ([]model.Trip, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE is_active = 1 ORDER BY depart_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	trips := []model.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, *t)
	}
	return trips, rows.Err()
}
