package pricing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func snapshot(base float64, total, available int, daysOut float64, demand float64) Inputs {
	return Inputs{
		BasePrice:      base,
		TotalSeats:     total,
		AvailableSeats: available,
		Departure:      testNow.Add(time.Duration(daysOut * 24 * float64(time.Hour))),
		DemandLevel:    demand,
		Now:            testNow,
	}
}

func TestComputeNeutral(t *testing.T) {
	// Empty flight, far-out departure, neutral demand: base price unchanged.
	price := Compute(snapshot(1000, 100, 100, 60, 1.0))
	assert.Equal(t, 1000.0, price)
}

func TestComputeScarcityScenario(t *testing.T) {
	full := Compute(snapshot(1000, 100, 1, 60, 1.0))
	empty := Compute(snapshot(1000, 100, 100, 60, 1.0))

	assert.GreaterOrEqual(t, full, 800.0)
	assert.LessOrEqual(t, full, 4000.0)
	assert.GreaterOrEqual(t, full, empty)
	// 99 of 100 seats gone: seat factor alone is 1 + 0.99*0.6
	assert.InDelta(t, 1594.0, full, 0.01)
}

func TestComputeDemandOrdering(t *testing.T) {
	hot := Compute(snapshot(1000, 100, 50, 10, 2.5))
	cold := Compute(snapshot(1000, 100, 50, 10, 0.6))
	assert.Greater(t, hot, cold)
}

func TestComputeTimeRamp(t *testing.T) {
	near := Compute(snapshot(1000, 100, 50, 1, 1.0))
	far := Compute(snapshot(1000, 100, 50, 45, 1.0))
	assert.Greater(t, near, far)

	// The ramp is flat beyond the 30-day window.
	at45 := Compute(snapshot(1000, 100, 50, 45, 1.0))
	at90 := Compute(snapshot(1000, 100, 50, 90, 1.0))
	assert.Equal(t, at45, at90)
}

func TestComputeClamps(t *testing.T) {
	// Everything maxed out still caps at 4x base.
	high := Compute(snapshot(500, 100, 0, 0.5, 10.0))
	assert.Equal(t, 2000.0, high)

	// Dead demand floors at 0.8x base.
	low := Compute(snapshot(500, 100, 100, 60, 0.0))
	assert.Equal(t, 400.0, low)
}

func TestComputeMalformedInputs(t *testing.T) {
	// Zero total seats is defined, not malformed: remaining fraction is 0.
	price := Compute(snapshot(1000, 0, 0, 60, 1.0))
	assert.Equal(t, 1600.0, price)

	// Corrupt demand falls back to base.
	assert.Equal(t, 1000.0, Compute(snapshot(1000, 100, 50, 10, -3)))
	assert.Equal(t, 1000.0, Compute(snapshot(1000, 100, 50, 10, math.NaN())))

	// Negative seat counts fall back to base.
	assert.Equal(t, 1000.0, Compute(snapshot(1000, -5, 2, 10, 1.0)))
	assert.Equal(t, 1000.0, Compute(snapshot(1000, 100, -2, 10, 1.0)))

	// Corrupt base degrades to zero rather than panicking.
	assert.Equal(t, 0.0, Compute(snapshot(-100, 100, 50, 10, 1.0)))
	assert.Equal(t, 0.0, Compute(snapshot(math.NaN(), 100, 50, 10, 1.0)))
}

func TestComputeMissingDeparture(t *testing.T) {
	in := snapshot(1000, 100, 100, 0, 1.0)
	in.Departure = time.Time{}
	// A missing departure is treated as imminent: full urgency ramp.
	assert.InDelta(t, 1400.0, Compute(in), 0.02)
}

func TestComputePastDeparture(t *testing.T) {
	price := Compute(snapshot(1000, 100, 100, -3, 1.0))
	assert.GreaterOrEqual(t, price, 800.0)
	assert.LessOrEqual(t, price, 4000.0)
}
