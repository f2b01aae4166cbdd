package pricing

import (
	"math"
	"time"
)

// Price bounds relative to the base fare.
const (
	MinMultiplier = 0.8
	MaxMultiplier = 4.0
)

// NeutralDemand is the multiplier of a flight with no demand signal.
const NeutralDemand = 1.0

// Tunable factor weights.
const (
	scarcityWeight = 0.6  // sold-out flight costs up to +60%
	urgencyWeight  = 0.4  // departure inside 30 days costs up to +40%
	demandWeight   = 0.5  // demand deviation from neutral scales price by half
	urgencyWindow  = 30.0 // days before departure where the ramp applies
	minDays        = 0.001
)

// Inputs is a snapshot of everything the fare formula depends on.
type Inputs struct {
	BasePrice      float64
	TotalSeats     int
	AvailableSeats int
	Departure      time.Time
	DemandLevel    float64
	Now            time.Time
}

// Compute returns the current fare for a flight snapshot. It is pure and
// never fails: corrupt inputs degrade to the base price so that pricing
// problems never block a sale.
func Compute(in Inputs) float64 {
	base := in.BasePrice
	if math.IsNaN(base) || math.IsInf(base, 0) || base < 0 {
		return 0
	}
	if malformed(in) {
		return round2(base)
	}

	remaining := 0.0
	if in.TotalSeats > 0 {
		remaining = float64(in.AvailableSeats) / float64(in.TotalSeats)
		if remaining > 1 {
			remaining = 1
		}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	days := minDays
	if !in.Departure.IsZero() {
		days = math.Max(in.Departure.Sub(now).Hours()/24, minDays)
	}

	seatFactor := 1 + (1-remaining)*scarcityWeight
	timeFactor := 1 + math.Max(0, (urgencyWindow-math.Min(days, urgencyWindow))/urgencyWindow)*urgencyWeight
	demandFactor := 1 + (in.DemandLevel-1)*demandWeight

	price := round2(base * seatFactor * timeFactor * demandFactor)
	minPrice := round2(base * MinMultiplier)
	maxPrice := round2(base * MaxMultiplier)
	return math.Max(minPrice, math.Min(price, maxPrice))
}

func malformed(in Inputs) bool {
	if math.IsNaN(in.DemandLevel) || math.IsInf(in.DemandLevel, 0) || in.DemandLevel < 0 {
		return true
	}
	return in.TotalSeats < 0 || in.AvailableSeats < 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
