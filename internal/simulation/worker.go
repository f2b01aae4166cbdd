package simulation

import (
	"context"
	"math/rand"
	"time"

	"flightsim/internal/cache"
	"flightsim/internal/config"
	"flightsim/internal/logger"
	"flightsim/internal/metrics"
	"flightsim/internal/pricing"
	"flightsim/internal/service"
)

// Demand drift per tick: a uniform draw from [-0.15, +0.5], biased
// upward so markets heat faster than they cool.
const (
	demandDriftMin = -0.15
	demandDriftMax = 0.5
	demandFloor    = 0.5
)

// maxSimBookings bounds the seats a single simulated booking burst may
// take from one flight.
const maxSimBookings = 3

// Worker nudges demand levels and occasionally books seats on a random
// sample of flights, so fares keep moving without real traffic. The
// loop is owned by the context passed to Run; cancelling it stops the
// worker.
type Worker struct {
	flights    service.FlightStore
	demand     service.DemandStore
	flightSvc  *service.FlightService
	priceCache *cache.Cache
	cfg        config.SimulationConfig
	rng        *rand.Rand
}

// NewWorker builds a simulation worker. seed fixes the random sequence
// for tests; pass 0 for a time-based seed.
func NewWorker(flights service.FlightStore, demand service.DemandStore, flightSvc *service.FlightService, priceCache *cache.Cache, cfg config.SimulationConfig, seed int64) *Worker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Worker{
		flights:    flights,
		demand:     demand,
		flightSvc:  flightSvc,
		priceCache: priceCache,
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Run ticks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	log := logger.Get()
	log.Info("market simulation started",
		"interval", w.cfg.Interval,
		"sample_size", w.cfg.SampleSize,
	)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("market simulation stopped")
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs one simulation round. Errors are logged and never stop the
// loop.
func (w *Worker) Tick(ctx context.Context) {
	log := logger.Get()

	flights, err := w.flights.ListRandom(ctx, w.cfg.SampleSize)
	if err != nil {
		log.Error("simulation failed to sample flights", "error", err)
		return
	}

	for i := range flights {
		flight := &flights[i]

		oldDemand, err := w.demand.Get(ctx, flight.ID)
		if err != nil {
			log.Error("simulation failed to read demand", "flight_id", flight.ID, "error", err)
			continue
		}

		oldPrice := pricing.Compute(pricing.Inputs{
			BasePrice:      flight.BasePrice,
			TotalSeats:     flight.TotalSeats,
			AvailableSeats: flight.AvailableSeats,
			Departure:      flight.Departure,
			DemandLevel:    oldDemand,
		})

		newDemand := oldDemand + demandDriftMin + w.rng.Float64()*(demandDriftMax-demandDriftMin)
		if newDemand < demandFloor {
			newDemand = demandFloor
		}
		if newDemand > service.MaxDemandLevel {
			newDemand = service.MaxDemandLevel
		}

		if err := w.demand.Set(ctx, flight.ID, newDemand); err != nil {
			log.Error("simulation failed to set demand", "flight_id", flight.ID, "error", err)
			continue
		}

		if w.rng.Float64() < w.cfg.BookingProb && flight.AvailableSeats > 0 {
			want := 1 + w.rng.Intn(maxSimBookings)
			taken, err := w.flights.DecrementSeats(ctx, flight.ID, want)
			if err != nil {
				log.Error("simulation failed to book seats", "flight_id", flight.ID, "error", err)
			} else if taken > 0 {
				flight.AvailableSeats -= taken
				log.Debug("simulated bookings", "flight_id", flight.ID, "seats", taken)
			}
		}

		newPrice := pricing.Compute(pricing.Inputs{
			BasePrice:      flight.BasePrice,
			TotalSeats:     flight.TotalSeats,
			AvailableSeats: flight.AvailableSeats,
			Departure:      flight.Departure,
			DemandLevel:    newDemand,
		})

		w.flightSvc.RecordFareChange(ctx, flight, oldPrice, newPrice, newDemand)

		if w.priceCache != nil {
			w.priceCache.InvalidatePrice(ctx, flight.ID)
		}
	}

	metrics.SimulationTicks.Inc()
}
