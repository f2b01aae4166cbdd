package models

import "time"

// NATS subjects for domain events. Publication is best-effort: a failed
// publish is logged and never fails the originating operation.
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventFareChanged      = "fare.changed"
	EventDemandOverride   = "demand.override"
)

type BookingConfirmedEvent struct {
	PNR         string    `json:"pnr"`
	FlightID    int64     `json:"flight_id"`
	SeatNumber  string    `json:"seat_number"`
	BookedPrice float64   `json:"booked_price"`
	Timestamp   time.Time `json:"timestamp"`
}

type BookingCancelledEvent struct {
	PNR       string    `json:"pnr"`
	FlightID  int64     `json:"flight_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

type FareChangedEvent struct {
	FlightID       int64     `json:"flight_id"`
	OldPrice       float64   `json:"old_price"`
	NewPrice       float64   `json:"new_price"`
	DemandLevel    float64   `json:"demand_level"`
	AvailableSeats int       `json:"available_seats"`
	Timestamp      time.Time `json:"timestamp"`
}

type DemandOverrideEvent struct {
	FlightID    int64     `json:"flight_id"`
	DemandLevel float64   `json:"demand_level"`
	Timestamp   time.Time `json:"timestamp"`
}
