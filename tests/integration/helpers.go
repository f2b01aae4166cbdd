package integration

import (
	"os"
	"testing"

	"flightsim/internal/models"
)

// Integration tests run against a live API started separately (with a
// seeded database). They are skipped unless API_URL is set.

func apiClient(t *testing.T) *TestClient {
	t.Helper()

	baseURL := os.Getenv("API_URL")
	if baseURL == "" {
		t.Skip("API_URL not set, skipping integration tests")
	}

	email := os.Getenv("API_EMAIL")
	if email == "" {
		email = "admin@flightsim.local"
	}
	password := os.Getenv("API_PASSWORD")
	if password == "" {
		password = "admin123"
	}

	return NewTestClient(baseURL, email, password)
}

// FindAvailableSeat returns the first free seat in a seat map.
func FindAvailableSeat(seats []models.SeatMapEntry) string {
	for _, seat := range seats {
		if seat.Status == models.SeatAvailable {
			return seat.SeatNumber
		}
	}
	return ""
}

// FindBookableFlight returns a flight with free seats, or nil.
func FindBookableFlight(flights []models.Flight) *models.Flight {
	for i := range flights {
		if flights[i].AvailableSeats > 0 {
			return &flights[i]
		}
	}
	return nil
}
