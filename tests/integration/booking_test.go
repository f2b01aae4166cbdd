package integration

import (
	"net/http"
	"testing"

	"flightsim/internal/models"
)

func TestAPI_HealthCheck(t *testing.T) {
	client := apiClient(t)
	client.HealthCheck(t)
}

func TestAPI_ListFlightsAndPrices(t *testing.T) {
	client := apiClient(t)

	flights := client.ListFlights(t)
	if len(flights) == 0 {
		t.Fatal("Expected at least one flight, run the generator first")
	}

	flight := FindBookableFlight(flights)
	if flight == nil {
		t.Fatal("No flight with available seats")
	}

	price := client.GetPrice(t, flight.ID)
	if price.CurrentPrice < flight.BasePrice*0.8 || price.CurrentPrice > flight.BasePrice*4.0 {
		t.Fatalf("Price %.2f outside fare bounds for base %.2f", price.CurrentPrice, flight.BasePrice)
	}
}

func TestAPI_BookingLifecycle(t *testing.T) {
	client := apiClient(t)

	flights := client.ListFlights(t)
	flight := FindBookableFlight(flights)
	if flight == nil {
		t.Fatal("No flight with available seats")
	}

	seatMap := client.GetSeatMap(t, flight.ID)
	seat := FindAvailableSeat(seatMap.Seats)
	if seat == "" {
		t.Fatal("No available seat on flight")
	}

	hold := client.InitiateBooking(t, flight.ID, seat)
	if hold.HoldToken == "" {
		t.Fatal("Expected a hold token")
	}

	resp := client.ConfirmBooking(t, models.ConfirmBookingRequest{
		FlightID:       flight.ID,
		SeatNumber:     seat,
		PassengerName:  "Integration Test",
		PassengerEmail: "itest@example.com",
		HoldToken:      hold.HoldToken,
	})
	defer resp.Body.Close()

	// The payment simulator declines a small share of charges.
	if resp.StatusCode == http.StatusPaymentRequired {
		t.Log("Payment declined by simulator, seat released")
		return
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", resp.StatusCode)
	}

	var confirm models.ConfirmBookingResponse
	decodeBody(t, resp, &confirm)
	if len(confirm.PNR) != 8 {
		t.Fatalf("Expected 8 character reservation code, got %q", confirm.PNR)
	}

	// The seat is now booked on the map.
	seatMap = client.GetSeatMap(t, flight.ID)
	for _, s := range seatMap.Seats {
		if s.SeatNumber == seat && s.Status != models.SeatBooked {
			t.Fatalf("Seat %s should be booked, got %s", seat, s.Status)
		}
	}

	cancelResp := client.CancelBooking(t, confirm.PNR)
	cancelResp.Body.Close()
	if cancelResp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200 on cancel, got %d", cancelResp.StatusCode)
	}

	// Cancelling twice is rejected.
	again := client.CancelBooking(t, confirm.PNR)
	again.Body.Close()
	if again.StatusCode != http.StatusConflict {
		t.Fatalf("Expected status 409 on double cancel, got %d", again.StatusCode)
	}
}

func TestAPI_SeatConflict(t *testing.T) {
	client := apiClient(t)

	flights := client.ListFlights(t)
	flight := FindBookableFlight(flights)
	if flight == nil {
		t.Fatal("No flight with available seats")
	}

	seatMap := client.GetSeatMap(t, flight.ID)
	seat := FindAvailableSeat(seatMap.Seats)
	if seat == "" {
		t.Fatal("No available seat on flight")
	}

	client.InitiateBooking(t, flight.ID, seat)

	// A second hold on the same seat must be rejected.
	resp := client.makeRequest(t, "POST", "/bookings/initiate", models.InitiateBookingRequest{
		FlightID:   flight.ID,
		SeatNumber: seat,
	}, true)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("Expected status 409 for held seat, got %d", resp.StatusCode)
	}
}
