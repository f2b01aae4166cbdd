package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"flightsim/internal/cache"
	apperrors "flightsim/internal/errors"
	"flightsim/internal/logger"
	"flightsim/internal/messaging"
	"flightsim/internal/metrics"
	"flightsim/internal/models"
	"flightsim/internal/pricing"
	"flightsim/internal/seatmap"
)

// Demand level bounds for the admin override.
const (
	MinDemandLevel = 0.1
	MaxDemandLevel = 10.0
)

// fareChangeThreshold is the relative price delta below which a fare
// movement is noise and not worth a history row.
const fareChangeThreshold = 0.01

// FlightService reads the catalog and computes fares.
type FlightService struct {
	stores     Stores
	publisher  messaging.Publisher
	priceCache *cache.Cache
}

func NewFlightService(stores Stores, publisher messaging.Publisher, priceCache *cache.Cache) *FlightService {
	return &FlightService{stores: stores, publisher: publisher, priceCache: priceCache}
}

// List returns all flights with their current fares attached.
func (s *FlightService) List(ctx context.Context) ([]models.Flight, error) {
	flights, err := s.stores.Flights.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range flights {
		if err := s.attachPricing(ctx, &flights[i]); err != nil {
			return nil, err
		}
	}
	return flights, nil
}

// Get returns one flight with its current fare attached.
func (s *FlightService) Get(ctx context.Context, id int64) (*models.Flight, error) {
	flight, err := s.stores.Flights.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachPricing(ctx, flight); err != nil {
		return nil, err
	}
	return flight, nil
}

// CurrentPrice returns the live fare for a flight, served from the
// price cache when a fresh snapshot exists.
func (s *FlightService) CurrentPrice(ctx context.Context, id int64) (*models.FlightPriceResponse, error) {
	if s.priceCache != nil {
		if cached, ok := s.priceCache.GetPrice(ctx, id); ok {
			return cached, nil
		}
	}

	flight, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &models.FlightPriceResponse{
		Status:       "success",
		FlightID:     flight.ID,
		CurrentPrice: flight.CurrentPrice,
	}
	if s.priceCache != nil {
		s.priceCache.SetPrice(ctx, resp)
	}
	return resp, nil
}

// SeatMap derives the per-seat view of a flight. Seat numbers come from
// the fixed cabin layout; statuses come from confirmed bookings and
// live holds. Expired holds are swept first.
func (s *FlightService) SeatMap(ctx context.Context, flightID int64) (*models.SeatMapResponse, error) {
	flight, err := s.stores.Flights.GetByID(ctx, flightID)
	if err != nil {
		return nil, err
	}

	swept, err := s.stores.Holds.SweepExpired(ctx, flightID)
	if err != nil {
		return nil, err
	}
	if swept > 0 {
		metrics.HoldsExpired.Add(float64(swept))
	}

	taken, err := s.stores.Bookings.SeatsTaken(ctx, flightID)
	if err != nil {
		return nil, err
	}

	holds, err := s.stores.Holds.ListActive(ctx, flightID)
	if err != nil {
		return nil, err
	}
	held := make(map[string]time.Time, len(holds))
	for _, h := range holds {
		held[h.SeatNumber] = h.ExpiresAt
	}

	seats := make([]models.SeatMapEntry, 0, flight.TotalSeats)
	for _, seat := range seatmap.Enumerate(flight.TotalSeats) {
		entry := models.SeatMapEntry{SeatNumber: seat, Status: models.SeatAvailable}
		if taken[seat] {
			entry.Status = models.SeatBooked
		} else if expires, ok := held[seat]; ok {
			entry.Status = models.SeatHeld
			expiresAt := expires
			entry.HoldExpiresAt = &expiresAt
		}
		seats = append(seats, entry)
	}

	return &models.SeatMapResponse{
		Status:   "success",
		FlightID: flightID,
		Seats:    seats,
	}, nil
}

// Search filters the catalog and attaches current fares.
func (s *FlightService) Search(ctx context.Context, q models.SearchQuery) ([]models.Flight, error) {
	flights, err := s.stores.Flights.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	for i := range flights {
		if err := s.attachPricing(ctx, &flights[i]); err != nil {
			return nil, err
		}
	}
	return flights, nil
}

// Stats aggregates inventory totals.
func (s *FlightService) Stats(ctx context.Context) (*models.FlightStats, error) {
	return s.stores.Flights.Stats(ctx)
}

// FareHistory returns recent fare movements for a flight.
func (s *FlightService) FareHistory(ctx context.Context, flightID int64, limit int) ([]models.FareHistoryEntry, error) {
	if _, err := s.stores.Flights.GetByID(ctx, flightID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.stores.FareHistory.ListByFlight(ctx, flightID, limit)
}

// Airlines returns the airline catalog.
func (s *FlightService) Airlines(ctx context.Context) ([]models.Airline, error) {
	return s.stores.Flights.ListAirlines(ctx)
}

// Airports returns the airport catalog.
func (s *FlightService) Airports(ctx context.Context) ([]models.Airport, error) {
	return s.stores.Flights.ListAirports(ctx)
}

// SetDemand overrides the demand multiplier for a flight and returns
// the resulting fare. Out-of-range levels are rejected.
func (s *FlightService) SetDemand(ctx context.Context, flightID int64, level float64) (*models.SetDemandResponse, error) {
	if level < MinDemandLevel || level > MaxDemandLevel {
		return nil, fmt.Errorf("demand level %.2f: %w", level, apperrors.ErrDemandOutOfRange)
	}

	flight, err := s.stores.Flights.GetByID(ctx, flightID)
	if err != nil {
		return nil, err
	}

	oldPrice, err := s.priceFor(ctx, flight)
	if err != nil {
		return nil, err
	}

	if err := s.stores.Demand.Set(ctx, flightID, level); err != nil {
		return nil, err
	}

	newPrice := pricing.Compute(pricing.Inputs{
		BasePrice:      flight.BasePrice,
		TotalSeats:     flight.TotalSeats,
		AvailableSeats: flight.AvailableSeats,
		Departure:      flight.Departure,
		DemandLevel:    level,
	})

	s.RecordFareChange(ctx, flight, oldPrice, newPrice, level)

	if s.priceCache != nil {
		s.priceCache.InvalidatePrice(ctx, flightID)
	}

	if err := s.publisher.Publish(models.EventDemandOverride, models.DemandOverrideEvent{
		FlightID:    flightID,
		DemandLevel: level,
		Timestamp:   time.Now(),
	}); err != nil {
		logger.Get().Warn("failed to publish demand override", "flight_id", flightID, "error", err)
	}

	return &models.SetDemandResponse{
		Status:       "success",
		FlightID:     flightID,
		DemandLevel:  level,
		CurrentPrice: newPrice,
	}, nil
}

// RecordFareChange appends a fare history row and emits an event when
// the relative move exceeds the noise threshold.
func (s *FlightService) RecordFareChange(ctx context.Context, flight *models.Flight, oldPrice, newPrice, demand float64) {
	if oldPrice <= 0 {
		return
	}
	if math.Abs(newPrice-oldPrice)/oldPrice <= fareChangeThreshold {
		return
	}

	entry := &models.FareHistoryEntry{
		FlightID:       flight.ID,
		OldPrice:       oldPrice,
		NewPrice:       newPrice,
		DemandLevel:    demand,
		AvailableSeats: flight.AvailableSeats,
	}
	if err := s.stores.FareHistory.Record(ctx, entry); err != nil {
		logger.Get().Error("failed to record fare change", "flight_id", flight.ID, "error", err)
		return
	}
	metrics.FareChanges.Inc()

	if err := s.publisher.Publish(models.EventFareChanged, models.FareChangedEvent{
		FlightID:       flight.ID,
		OldPrice:       oldPrice,
		NewPrice:       newPrice,
		DemandLevel:    demand,
		AvailableSeats: flight.AvailableSeats,
		Timestamp:      time.Now(),
	}); err != nil {
		logger.Get().Warn("failed to publish fare change", "flight_id", flight.ID, "error", err)
	}
}

func (s *FlightService) attachPricing(ctx context.Context, flight *models.Flight) error {
	demand, err := s.stores.Demand.Get(ctx, flight.ID)
	if err != nil {
		return err
	}
	flight.DemandLevel = demand
	flight.CurrentPrice = pricing.Compute(pricing.Inputs{
		BasePrice:      flight.BasePrice,
		TotalSeats:     flight.TotalSeats,
		AvailableSeats: flight.AvailableSeats,
		Departure:      flight.Departure,
		DemandLevel:    demand,
	})
	return nil
}

func (s *FlightService) priceFor(ctx context.Context, flight *models.Flight) (float64, error) {
	demand, err := s.stores.Demand.Get(ctx, flight.ID)
	if err != nil {
		return 0, err
	}
	return pricing.Compute(pricing.Inputs{
		BasePrice:      flight.BasePrice,
		TotalSeats:     flight.TotalSeats,
		AvailableSeats: flight.AvailableSeats,
		Departure:      flight.Departure,
		DemandLevel:    demand,
	}), nil
}
