package service

import (
	"time"

	"flightsim/internal/cache"
	"flightsim/internal/messaging"
	"flightsim/internal/payment"
)

// Stores groups the storage interfaces the services depend on.
type Stores struct {
	Flights     FlightStore
	Demand      DemandStore
	Holds       HoldStore
	Bookings    BookingStore
	FareHistory FareHistoryStore
	Users       UserStore
	Emails      EmailStore
}

// Services bundles all business logic services.
type Services struct {
	Flights  *FlightService
	Bookings *BookingService
	Users    *UserService
}

// Deps carries the infrastructure the services use. PriceCache may be
// nil when Redis is disabled.
type Deps struct {
	Gateway    payment.Gateway
	Publisher  messaging.Publisher
	PriceCache *cache.Cache
	HoldTTL    time.Duration
}

// New creates all services over the given stores.
func New(stores Stores, deps Deps) *Services {
	flights := NewFlightService(stores, deps.Publisher, deps.PriceCache)
	return &Services{
		Flights:  flights,
		Bookings: NewBookingService(stores, flights, deps),
		Users:    NewUserService(stores.Users, stores.Emails),
	}
}
