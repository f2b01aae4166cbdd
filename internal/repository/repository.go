package repository

import (
	"flightsim/internal/database"
)

// Repositories bundles all Postgres-backed stores.
type Repositories struct {
	Flights     *FlightRepository
	Demand      *DemandRepository
	Holds       *HoldRepository
	Bookings    *BookingRepository
	FareHistory *FareHistoryRepository
	Users       *UserRepository
	Emails      *EmailRepository
}

// New wires every repository to the shared connection pool.
func New(db *database.DB) *Repositories {
	return &Repositories{
		Flights:     NewFlightRepository(db),
		Demand:      NewDemandRepository(db),
		Holds:       NewHoldRepository(db),
		Bookings:    NewBookingRepository(db),
		FareHistory: NewFareHistoryRepository(db),
		Users:       NewUserRepository(db),
		Emails:      NewEmailRepository(db),
	}
}
