package handlers_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightsim/internal/api"
	"flightsim/internal/config"
	"flightsim/internal/handlers"
	"flightsim/internal/messaging"
	"flightsim/internal/models"
	"flightsim/internal/payment"
	"flightsim/internal/repository"
	"flightsim/internal/service"
)

type testEnv struct {
	store  *repository.MemoryStore
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := repository.NewMemoryStore()
	stores := service.Stores{
		Flights:     store,
		Demand:      store,
		Holds:       store,
		Bookings:    store,
		FareHistory: store,
		Users:       store,
		Emails:      store,
	}
	services := service.New(stores, service.Deps{
		Gateway:   payment.NewSimulator(payment.Config{SuccessRate: 1.0}, 1),
		Publisher: messaging.NoopPublisher{},
		HoldTTL:   5 * time.Minute,
	})

	h := handlers.New(services, store, nil)
	cfg := &config.Config{
		Port:           "8080",
		GinMode:        gin.TestMode,
		RequestTimeout: 5 * time.Second,
	}
	server := api.NewServer(cfg, h, store, nil, nil)

	return &testEnv{store: store, router: server.Router()}
}

func (e *testEnv) addUser(t *testing.T, email, password string, admin bool) {
	t.Helper()
	hash := sha256.Sum256([]byte(password))
	_, err := e.store.Create(context.Background(), &models.User{
		Email:        email,
		PasswordHash: fmt.Sprintf("%x", hash),
		FirstName:    "Test",
		Surname:      "User",
		IsAdmin:      admin,
	})
	require.NoError(t, err)
}

func (e *testEnv) request(t *testing.T, method, path string, body any, email, password string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req.SetBasicAuth(email, password)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func seedFlight(e *testEnv) *models.Flight {
	return e.store.AddFlight(models.Flight{
		FlightNumber:    "FS100",
		AirlineID:       1,
		AirlineName:     "FlightSim Air",
		AirlineCode:     "FS",
		OriginCity:      "Riga",
		OriginIATA:      "RIX",
		DestinationCity: "Oslo",
		DestinationIATA: "OSL",
		Departure:       time.Now().Add(20 * 24 * time.Hour),
		Arrival:         time.Now().Add(20*24*time.Hour + 2*time.Hour),
		BasePrice:       1000,
		TotalSeats:      6,
		AvailableSeats:  6,
		DurationMins:    120,
	})
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	w := env.request(t, http.MethodGet, "/health", nil, "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListFlights(t *testing.T) {
	env := newTestEnv(t)
	seedFlight(env)

	w := env.request(t, http.MethodGet, "/flights", nil, "", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(1), body["count"])
}

func TestGetFlightNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/flights/42", nil, "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetFlightPrice(t *testing.T) {
	env := newTestEnv(t)
	flight := seedFlight(env)

	w := env.request(t, http.MethodGet, fmt.Sprintf("/flights/%d/price", flight.ID), nil, "", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Greater(t, body["current_price"].(float64), 0.0)
}

func TestGetSeatMap(t *testing.T) {
	env := newTestEnv(t)
	flight := seedFlight(env)

	w := env.request(t, http.MethodGet, fmt.Sprintf("/flights/%d/seats", flight.ID), nil, "", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	seats := body["seats"].([]any)
	assert.Len(t, seats, 6)
}

func TestBookingRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	flight := seedFlight(env)

	w := env.request(t, http.MethodPost, "/bookings/initiate", models.InitiateBookingRequest{
		FlightID:   flight.ID,
		SeatNumber: "1A",
	}, "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.request(t, http.MethodPost, "/bookings/initiate", models.InitiateBookingRequest{
		FlightID:   flight.ID,
		SeatNumber: "1A",
	}, "nobody@example.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingFlow(t *testing.T) {
	env := newTestEnv(t)
	flight := seedFlight(env)
	env.addUser(t, "alice@example.com", "secret123", false)

	w := env.request(t, http.MethodPost, "/bookings/initiate", models.InitiateBookingRequest{
		FlightID:   flight.ID,
		SeatNumber: "1A",
	}, "alice@example.com", "secret123")
	require.Equal(t, http.StatusOK, w.Code)
	initBody := decode(t, w)
	holdToken := initBody["hold_token"].(string)
	require.NotEmpty(t, holdToken)

	w = env.request(t, http.MethodPost, "/bookings/confirm", models.ConfirmBookingRequest{
		FlightID:       flight.ID,
		SeatNumber:     "1A",
		PassengerName:  "Alice Smith",
		PassengerEmail: "alice@example.com",
		HoldToken:      holdToken,
	}, "alice@example.com", "secret123")
	require.Equal(t, http.StatusCreated, w.Code)
	confirmBody := decode(t, w)
	pnr := confirmBody["pnr"].(string)
	assert.Len(t, pnr, 8)

	w = env.request(t, http.MethodGet, "/bookings/"+pnr+"/receipt", nil, "alice@example.com", "secret123")
	require.Equal(t, http.StatusOK, w.Code)
	receiptBody := decode(t, w)
	receipt := receiptBody["receipt"].(map[string]any)
	assert.Equal(t, pnr, receipt["pnr"])
	assert.Equal(t, "confirmed", receipt["status"])

	w = env.request(t, http.MethodGet, "/bookings?email=alice@example.com", nil, "alice@example.com", "secret123")
	require.Equal(t, http.StatusOK, w.Code)
	historyBody := decode(t, w)
	assert.Equal(t, float64(1), historyBody["count"])

	w = env.request(t, http.MethodDelete, "/bookings/"+pnr, nil, "alice@example.com", "secret123")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodDelete, "/bookings/"+pnr, nil, "alice@example.com", "secret123")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestConfirmConflictOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	flight := seedFlight(env)
	env.addUser(t, "alice@example.com", "secret123", false)
	env.addUser(t, "bob@example.com", "secret456", false)

	w := env.request(t, http.MethodPost, "/bookings/confirm", models.ConfirmBookingRequest{
		FlightID:       flight.ID,
		SeatNumber:     "1A",
		PassengerName:  "Alice Smith",
		PassengerEmail: "alice@example.com",
	}, "alice@example.com", "secret123")
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodPost, "/bookings/confirm", models.ConfirmBookingRequest{
		FlightID:       flight.ID,
		SeatNumber:     "1A",
		PassengerName:  "Bob Jones",
		PassengerEmail: "bob@example.com",
	}, "bob@example.com", "secret456")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAdminDemandEndpoint(t *testing.T) {
	env := newTestEnv(t)
	flight := seedFlight(env)
	env.addUser(t, "user@example.com", "secret123", false)
	env.addUser(t, "admin@example.com", "adminpass", true)

	level := 2.5
	w := env.request(t, http.MethodPost, "/admin/demand", models.SetDemandRequest{
		FlightID:    flight.ID,
		DemandLevel: &level,
	}, "user@example.com", "secret123")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodPost, "/admin/demand", models.SetDemandRequest{
		FlightID:    flight.ID,
		DemandLevel: &level,
	}, "admin@example.com", "adminpass")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 2.5, body["demand_level"])

	outOfRange := 50.0
	w = env.request(t, http.MethodPost, "/admin/demand", models.SetDemandRequest{
		FlightID:    flight.ID,
		DemandLevel: &outOfRange,
	}, "admin@example.com", "adminpass")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)

	req := models.RegisterRequest{
		Email:     "new@example.com",
		Password:  "secret123",
		FirstName: "New",
		Surname:   "User",
	}
	w := env.request(t, http.MethodPost, "/users/register", req, "", "")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodPost, "/users/register", req, "", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.request(t, http.MethodPost, "/users/register", models.RegisterRequest{Email: "bad"}, "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingOwnership(t *testing.T) {
	env := newTestEnv(t)
	flight := seedFlight(env)
	env.addUser(t, "alice@example.com", "secret123", false)
	env.addUser(t, "bob@example.com", "secret456", false)
	env.addUser(t, "admin@example.com", "adminpass", true)

	w := env.request(t, http.MethodPost, "/bookings/confirm", models.ConfirmBookingRequest{
		FlightID:       flight.ID,
		SeatNumber:     "2C",
		PassengerName:  "Alice Smith",
		PassengerEmail: "alice@example.com",
	}, "alice@example.com", "secret123")
	require.Equal(t, http.StatusCreated, w.Code)
	pnr := decode(t, w)["pnr"].(string)

	w = env.request(t, http.MethodGet, "/bookings?email=alice@example.com", nil, "bob@example.com", "secret456")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodDelete, "/bookings/"+pnr, nil, "bob@example.com", "secret456")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodGet, "/bookings?email=alice@example.com", nil, "admin@example.com", "adminpass")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodDelete, "/bookings/"+pnr, nil, "admin@example.com", "adminpass")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRetryEmailEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "admin@example.com", "adminpass", true)

	ctx := context.Background()
	require.NoError(t, env.store.Enqueue(ctx, "alice@example.com", "Test", "body"))
	emails, err := env.store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, emails, 1)
	id := emails[0].ID
	require.NoError(t, env.store.MarkFailed(ctx, id, 0, 1, "smtp timeout"))

	w := env.request(t, http.MethodPost, fmt.Sprintf("/admin/email-queue/%d/retry", id), nil, "admin@example.com", "adminpass")
	require.Equal(t, http.StatusOK, w.Code)

	emails, err = env.store.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, models.EmailPending, emails[0].Status)
	assert.Zero(t, emails[0].Attempts)

	w = env.request(t, http.MethodPost, "/admin/email-queue/999/retry", nil, "admin@example.com", "adminpass")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
