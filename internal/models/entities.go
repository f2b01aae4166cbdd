package models

import (
	"time"
)

// Airline operates flights; its code prefixes reservation codes.
type Airline struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Code string `json:"code" db:"code"`
}

// Airport is a catalog entry referenced by flights.
type Airport struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	City     string `json:"city" db:"city"`
	Country  string `json:"country" db:"country"`
	IATACode string `json:"iata_code" db:"iata_code"`
}

// Flight is the shared mutable inventory record. available_seats is only
// ever changed inside a storage transaction.
type Flight struct {
	ID             int64     `json:"id" db:"id"`
	FlightNumber   string    `json:"flight_number" db:"flight_number"`
	AirlineID      int64     `json:"airline_id" db:"airline_id"`
	OriginID       int64     `json:"origin_id" db:"origin_id"`
	DestinationID  int64     `json:"destination_id" db:"destination_id"`
	Departure      time.Time `json:"departure" db:"departure"`
	Arrival        time.Time `json:"arrival" db:"arrival"`
	BasePrice      float64   `json:"base_price" db:"base_price"`
	TotalSeats     int       `json:"total_seats" db:"total_seats"`
	AvailableSeats int       `json:"available_seats" db:"available_seats"`
	DurationMins   int       `json:"duration_mins" db:"duration_mins"`

	// Joined catalog fields, filled by list/search queries.
	AirlineName     string `json:"airline_name,omitempty"`
	AirlineCode     string `json:"airline_code,omitempty"`
	OriginCity      string `json:"origin_city,omitempty"`
	OriginIATA      string `json:"origin_iata,omitempty"`
	DestinationCity string `json:"destination_city,omitempty"`
	DestinationIATA string `json:"destination_iata,omitempty"`

	// Derived fields, not from the flights table.
	CurrentPrice float64 `json:"current_price,omitempty"`
	DemandLevel  float64 `json:"demand_level,omitempty"`
}

// OccupiedSeats returns how many seats have been consumed.
func (f *Flight) OccupiedSeats() int {
	return f.TotalSeats - f.AvailableSeats
}

// OccupancyRate returns the occupied share as a percentage.
func (f *Flight) OccupancyRate() float64 {
	if f.TotalSeats == 0 {
		return 0
	}
	return float64(f.OccupiedSeats()) / float64(f.TotalSeats) * 100
}

// SeatHold is a time-boxed advisory claim on one seat of one flight. At
// most one unexpired hold may exist per (flight, seat); expired rows are
// swept lazily on access, never by a timer.
type SeatHold struct {
	ID         int64     `json:"id" db:"id"`
	FlightID   int64     `json:"flight_id" db:"flight_id"`
	SeatNumber string    `json:"seat_number" db:"seat_number"`
	Token      string    `json:"token" db:"token"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
}

// Booking lifecycle statuses. Bookings are never deleted; a cancel
// flips confirmed to cancelled exactly once.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Booking is a ledger row keyed by its PNR. BookedPrice is frozen at
// confirmation time and never recomputed.
type Booking struct {
	ID             int64     `json:"id" db:"id"`
	PNR            string    `json:"pnr" db:"pnr"`
	FlightID       int64     `json:"flight_id" db:"flight_id"`
	SeatNumber     string    `json:"seat_number" db:"seat_number"`
	PassengerName  string    `json:"passenger_name" db:"passenger_name"`
	PassengerEmail string    `json:"passenger_email" db:"passenger_email"`
	Status         string    `json:"status" db:"status"`
	BookedPrice    float64   `json:"booked_price" db:"booked_price"`
	PaymentStatus  string    `json:"payment_status" db:"payment_status"`
	BookingDate    time.Time `json:"booking_date" db:"booking_date"`

	// Joined fields.
	FlightNumber string `json:"flight_number,omitempty"`
	AirlineName  string `json:"airline_name,omitempty"`
}

// DemandLevel is the per-flight multiplier input to the fare formula,
// neutral at 1.0.
type DemandLevel struct {
	FlightID    int64     `json:"flight_id" db:"flight_id"`
	Level       float64   `json:"demand_level" db:"demand_level"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}

// FareHistoryEntry records one materially significant price change.
type FareHistoryEntry struct {
	ID             int64     `json:"id" db:"id"`
	FlightID       int64     `json:"flight_id" db:"flight_id"`
	Timestamp      time.Time `json:"timestamp" db:"timestamp"`
	OldPrice       float64   `json:"old_price" db:"old_price"`
	NewPrice       float64   `json:"new_price" db:"new_price"`
	DemandLevel    float64   `json:"demand_level" db:"demand_level"`
	AvailableSeats int       `json:"available_seats" db:"available_seats"`
}

// User is an API account; booking and admin routes authenticate with
// HTTP Basic Auth against this table.
type User struct {
	UserID       int64     `json:"user_id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	Surname      string    `json:"surname" db:"surname"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

// Email queue statuses.
const (
	EmailPending = "pending"
	EmailSent    = "sent"
	EmailFailed  = "failed"
)

// QueuedEmail is a best-effort outbound message with bounded retries.
type QueuedEmail struct {
	ID        int64      `json:"id" db:"id"`
	ToEmail   string     `json:"to_email" db:"to_email"`
	Subject   string     `json:"subject" db:"subject"`
	Body      string     `json:"body" db:"body"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	SentAt    *time.Time `json:"sent_at" db:"sent_at"`
	Status    string     `json:"status" db:"status"`
	Attempts  int        `json:"attempts" db:"attempts"`
	LastError *string    `json:"last_error" db:"last_error"`
}
