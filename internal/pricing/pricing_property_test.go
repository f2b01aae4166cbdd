package pricing

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

func drawInputs(t *rapid.T) Inputs {
	total := rapid.IntRange(1, 500).Draw(t, "total")
	return Inputs{
		BasePrice:      float64(rapid.IntRange(1, 500_000).Draw(t, "baseCents")) / 100,
		TotalSeats:     total,
		AvailableSeats: rapid.IntRange(0, total).Draw(t, "available"),
		Departure:      testNow.Add(time.Duration(rapid.IntRange(-48, 24*120).Draw(t, "hoursOut")) * time.Hour),
		DemandLevel:    float64(rapid.IntRange(0, 1000).Draw(t, "demandPct")) / 100,
		Now:            testNow,
	}
}

func TestProperty_PriceWithinBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := drawInputs(t)
		price := Compute(in)
		lo := round2(in.BasePrice * MinMultiplier)
		hi := round2(in.BasePrice * MaxMultiplier)
		if price < lo || price > hi {
			t.Fatalf("price %v outside [%v, %v] for %+v", price, lo, hi, in)
		}
	})
}

func TestProperty_ScarcityNeverLowersPrice(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := drawInputs(t)
		if in.AvailableSeats == 0 {
			t.Skip("already sold out")
		}
		scarcer := in
		scarcer.AvailableSeats = rapid.IntRange(0, in.AvailableSeats-1).Draw(t, "fewer")
		if Compute(scarcer) < Compute(in) {
			t.Fatalf("price dropped when seats got scarcer: %+v vs %d seats", in, scarcer.AvailableSeats)
		}
	})
}

func TestProperty_DemandNeverLowersPrice(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := drawInputs(t)
		hotter := in
		hotter.DemandLevel = in.DemandLevel + float64(rapid.IntRange(1, 500).Draw(t, "bumpPct"))/100
		if Compute(hotter) < Compute(in) {
			t.Fatalf("price dropped when demand rose: %+v -> %v", in, hotter.DemandLevel)
		}
	})
}
