package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"testing"
	"time"

	"flightsim/internal/models"
)

// TestClient calls the running API.
type TestClient struct {
	BaseURL    string
	Email      string
	Password   string
	HTTPClient *http.Client
}

// NewTestClient creates a client for the API under test.
func NewTestClient(baseURL, email, password string) *TestClient {
	return &TestClient{
		BaseURL:  baseURL,
		Email:    email,
		Password: password,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *TestClient) makeRequest(t *testing.T, method, path string, body interface{}, authed bool) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.SetBasicAuth(c.Email, c.Password)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

// HealthCheck verifies the API is up.
func (c *TestClient) HealthCheck(t *testing.T) {
	resp := c.makeRequest(t, "GET", "/health", nil, false)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
}

// ListFlights returns all flights.
func (c *TestClient) ListFlights(t *testing.T) []models.Flight {
	resp := c.makeRequest(t, "GET", "/flights", nil, false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var body struct {
		Flights []models.Flight `json:"flights"`
	}
	decodeBody(t, resp, &body)
	return body.Flights
}

// GetSeatMap returns the seat map of a flight.
func (c *TestClient) GetSeatMap(t *testing.T, flightID int64) *models.SeatMapResponse {
	resp := c.makeRequest(t, "GET", "/flights/"+itoa(flightID)+"/seats", nil, false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var body models.SeatMapResponse
	decodeBody(t, resp, &body)
	return &body
}

// GetPrice returns the current fare of a flight.
func (c *TestClient) GetPrice(t *testing.T, flightID int64) *models.FlightPriceResponse {
	resp := c.makeRequest(t, "GET", "/flights/"+itoa(flightID)+"/price", nil, false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var body models.FlightPriceResponse
	decodeBody(t, resp, &body)
	return &body
}

// InitiateBooking places a hold on a seat.
func (c *TestClient) InitiateBooking(t *testing.T, flightID int64, seat string) *models.InitiateBookingResponse {
	resp := c.makeRequest(t, "POST", "/bookings/initiate", models.InitiateBookingRequest{
		FlightID:   flightID,
		SeatNumber: seat,
	}, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var body models.InitiateBookingResponse
	decodeBody(t, resp, &body)
	return &body
}

// ConfirmBooking settles a booking. Returns the raw response so callers
// can assert on declines and conflicts.
func (c *TestClient) ConfirmBooking(t *testing.T, req models.ConfirmBookingRequest) *http.Response {
	return c.makeRequest(t, "POST", "/bookings/confirm", req, true)
}

// CancelBooking cancels a booking by reservation code.
func (c *TestClient) CancelBooking(t *testing.T, pnr string) *http.Response {
	return c.makeRequest(t, "DELETE", "/bookings/"+pnr, nil, true)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
