// Package repository implements data access for trips and seats.  Every
// seat state transition is a single conditional UPDATE so that concurrent
// callers racing on the same row are serialized by the database itself;
// a transition that matched no row is reported back as a false/zero result
// for the caller to diagnose.
package repository

import "errors"

// ErrTripNotFound is returned when a trip lookup yields no rows.
var ErrTripNotFound = errors.New("trip not found")

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")
