// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingQueueName is the default durable queue booking events are sent to.
const BookingQueueName = "booking.confirmed"

// BookingConfirmedEvent is published after an administrator turns a group of
// held seats into a booking.  It carries enough of the trip and contact
// details for downstream consumers to log or follow up without querying the
// seat ledger.  BookingCode is empty for bookings made through the legacy
// confirmation path.
type BookingConfirmedEvent struct {
	EventID      string   `json:"event_id"`
	TripID       uint64   `json:"trip_id"`
	TripTitle    string   `json:"trip_title"`
	RouteFrom    string   `json:"route_from"`
	RouteTo      string   `json:"route_to"`
	DepartAt     string   `json:"depart_at"`
	BookingCode  string   `json:"booking_code,omitempty"`
	SeatCodes    []string `json:"seats"`
	CustomerName string   `json:"customer_name,omitempty"`
	CustomerWA   string   `json:"customer_wa,omitempty"`
	BookedBy     string   `json:"booked_by,omitempty"`
	BookedAt     string   `json:"booked_at"`
}
