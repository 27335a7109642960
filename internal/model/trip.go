package model

import "time"

// Bus classes offered on a trip.
const (
	BusTypeEconomy   = "EKONOMI"
	BusTypeExecutive = "EXEC"
	BusTypeSleeper   = "SLEEPER"
)

// Trip represents a scheduled bus journey.  Trips are created and edited by
// catalog management; the reservation core only reads them.  This struct
// corresponds to a row in the `trips` table.
//
// Fields:
//
//	ID            – primary key identifier.
//	Title         – display name of the trip.
//	BusType       – one of EKONOMI, EXEC, SLEEPER.
//	RouteFrom     – departure city.
//	RouteTo       – destination city.
//	DepartAt      – scheduled departure (UTC).
//	Price         – ticket price per seat in the smallest currency unit.
//	CapacityTotal – advertised number of seats.
//	IsActive      – inactive trips cannot be browsed or held.
//	AdminWA       – operator WhatsApp number handed to customers after claiming.
type Trip struct {
	ID            uint64    // trips.id
	Title         string    // trips.title
	BusType       string    // trips.bus_type
	RouteFrom     string    // trips.route_from
	RouteTo       string    // trips.route_to
	DepartAt      time.Time // trips.depart_at
	Price         uint32    // trips.price
	Description   string    // trips.description
	CapacityTotal uint32    // trips.capacity_total
	IsActive      bool      // trips.is_active
	AdminWA       string    // trips.admin_wa
	BusImage      string    // trips.bus_image (relative media path)
	CreatedAt     time.Time // trips.created_at
}
