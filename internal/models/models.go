package models

import "time"

// Request/response shapes for the API layer.

type InitiateBookingRequest struct {
	FlightID   int64  `json:"flight_id" binding:"required"`
	SeatNumber string `json:"seat_number" binding:"required"`
}

type InitiateBookingResponse struct {
	Status        string    `json:"status"`
	FlightID      int64     `json:"flight_id"`
	FlightNumber  string    `json:"flight_number"`
	SeatNumber    string    `json:"seat_number"`
	CurrentPrice  float64   `json:"current_price"`
	HoldToken     string    `json:"hold_token"`
	HoldExpiresAt time.Time `json:"hold_expires_at"`
}

type ConfirmBookingRequest struct {
	FlightID       int64  `json:"flight_id" binding:"required"`
	SeatNumber     string `json:"seat_number" binding:"required"`
	PassengerName  string `json:"passenger_name" binding:"required"`
	PassengerEmail string `json:"passenger_email" binding:"required,email"`
	HoldToken      string `json:"hold_token"`
}

type BookingDetails struct {
	FlightNumber   string    `json:"flight_number"`
	PassengerName  string    `json:"passenger_name"`
	PassengerEmail string    `json:"passenger_email"`
	SeatNumber     string    `json:"seat_number"`
	BookedPrice    float64   `json:"booked_price"`
	BookingDate    time.Time `json:"booking_date"`
}

type ConfirmBookingResponse struct {
	Status         string         `json:"status"`
	PNR            string         `json:"pnr"`
	BookingDetails BookingDetails `json:"booking_details"`
}

type CancelBookingResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	RestoredSeat bool   `json:"restored_seat"`
}

// SeatStatus values for the derived seat map.
const (
	SeatAvailable = "available"
	SeatBooked    = "booked"
	SeatHeld      = "held"
)

type SeatMapEntry struct {
	SeatNumber    string     `json:"seat_number"`
	Status        string     `json:"status"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
}

type SeatMapResponse struct {
	Status   string         `json:"status"`
	FlightID int64          `json:"flight_id"`
	Seats    []SeatMapEntry `json:"seats"`
}

type FlightPriceResponse struct {
	Status       string  `json:"status"`
	FlightID     int64   `json:"flight_id"`
	CurrentPrice float64 `json:"current_price"`
}

type SetDemandRequest struct {
	FlightID    int64    `json:"flight_id" binding:"required"`
	DemandLevel *float64 `json:"demand_level" binding:"required"`
}

type SetDemandResponse struct {
	Status       string  `json:"status"`
	FlightID     int64   `json:"flight_id"`
	DemandLevel  float64 `json:"demand_level"`
	CurrentPrice float64 `json:"current_price"`
}

// SearchQuery carries the /search filters. Origin and destination match
// either a city name or an IATA code.
type SearchQuery struct {
	Origin      string
	Destination string
	Date        string
	Sort        string
	MinPrice    *float64
	MaxPrice    *float64
	MinSeats    *int
}

type FlightStats struct {
	TotalFlights   int     `json:"total_flights"`
	TotalSeats     int     `json:"total_seats"`
	AvailableSeats int     `json:"available_seats"`
	OccupiedSeats  int     `json:"occupied_seats"`
	OccupancyRate  float64 `json:"occupancy_rate"`
	TotalAirlines  int     `json:"total_airlines"`
	TotalAirports  int     `json:"total_airports"`
	MinBasePrice   float64 `json:"min_base_price"`
	MaxBasePrice   float64 `json:"max_base_price"`
	AvgBasePrice   float64 `json:"avg_base_price"`
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"first_name" binding:"required"`
	Surname   string `json:"surname" binding:"required"`
}

type RegisterResponse struct {
	Status string `json:"status"`
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

type ReceiptPayload struct {
	PNR            string    `json:"pnr"`
	FlightNumber   string    `json:"flight_number"`
	Airline        string    `json:"airline"`
	PassengerName  string    `json:"passenger_name"`
	PassengerEmail string    `json:"passenger_email"`
	SeatNumber     string    `json:"seat_number"`
	BookedPrice    float64   `json:"booked_price"`
	Status         string    `json:"status"`
	BookingDate    time.Time `json:"booking_date"`
}
