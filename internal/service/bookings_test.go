package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "flightsim/internal/errors"
	"flightsim/internal/messaging"
	"flightsim/internal/models"
	"flightsim/internal/payment"
	"flightsim/internal/repository"
	"flightsim/internal/service"
)

func testFlight(totalSeats, availableSeats int) models.Flight {
	return models.Flight{
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
		TotalSeats:      totalSeats,
		AvailableSeats:  availableSeats,
		DurationMins:    120,
	}
}

func newTestServices(store *repository.MemoryStore, gateway payment.Gateway) *service.Services {
	stores := service.Stores{
		Flights:     store,
		Demand:      store,
		Holds:       store,
		Bookings:    store,
		FareHistory: store,
		Users:       store,
		Emails:      store,
	}
	return service.New(stores, service.Deps{
		Gateway:   gateway,
		Publisher: messaging.NoopPublisher{},
		HoldTTL:   5 * time.Minute,
	})
}

func alwaysApprove() payment.Gateway {
	return payment.NewSimulator(payment.Config{SuccessRate: 1.0}, 1)
}

func TestInitiateCreatesHoldAndQuotesPrice(t *testing.T) {
	store := repository.NewMemoryStore()
	flight := store.AddFlight(testFlight(6, 6))
	svc := newTestServices(store, alwaysApprove())
	ctx := context.Background()

	resp, err := svc.Bookings.Initiate(ctx, models.InitiateBookingRequest{
		FlightID:   flight.ID,
		SeatNumber: "1A",
	})
	require.NoError(t, err)

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "FS100", resp.FlightNumber)
	assert.NotEmpty(t, resp.HoldToken)
	assert.True(t, resp.HoldExpiresAt.After(time.Now()))
	assert.Greater(t, resp.CurrentPrice, 0.0)

	// The held seat is exclusive until the hold expires.
	_, err = svc.Bookings.Initiate(ctx, models.InitiateBookingRequest{
		FlightID:   flight.ID,
		SeatNumber: "1A",
	})
	assert.ErrorIs(t, err, apperrors.ErrSeatConflict)

	// Other seats are unaffected.
	_, err = svc.Bookings.Initiate(ctx, models.InitiateBookingRequest{
		FlightID:   flight.ID,
		SeatNumber: "1B",
	})
	assert.NoError(t, err)
}

func TestInitiateRejectsBadInput(t *testing.T) {
	store := repository.NewMemoryStore()
	flight := store.AddFlight(testFlight(6, 6))
	svc := newTestServices(store, alwaysApprove())
	ctx := context.Background()

	_, err := svc.Bookings.Initiate(ctx, models.InitiateBookingRequest{
		FlightID:   flight.ID,
		SeatNumber: "9Z",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidSeat)

	_, err = svc.Bookings.Initiate(ctx, models.InitiateBookingRequest{
		FlightID:   9999,
		SeatNumber: "1A",
	})
	assert.ErrorIs(t, err, apperrors.ErrFlightNotFound)
}

func TestInitiateAfterHoldExpirySucceeds(t *testing.T) {
	store := repository.NewMemoryStore()
	flight := store.AddFlight(testFlight(6, 6))
	svc := newTestServices(store, alwaysApprove())
	ctx := context.Background()

	_, err := store.CreateHold(ctx, flight.ID, "1A", "stale-token", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	resp, err := svc.Bookings.Initiate(ctx, models.InitiateBookingRequest{
		FlightID:   flight.ID,
		SeatNumber: "1A",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.HoldToken)
}

func TestCreateHoldReplacesStaleHold(t *testing.T) {
	store := repository.NewMemoryStore()
	flight := store.AddFlight(testFlight(6, 6))
	ctx := context.Background()

	_, err := store.CreateHold(ctx, flight.ID, "1A", "stale-token", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	// An expired hold on the seat never blocks a new claim.
	hold, err := store.CreateHold(ctx, flight.ID, "1A", "fresh-token", time.Now().Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", hold.Token)

	// A live one does.
	_, err = store.CreateHold(ctx, flight.ID, "1A", "third-token", time.Now().Add(5*time.Minute))
	assert.ErrorIs(t, err, apperrors.ErrSeatConflict)
}

func TestConfirmWithHoldToken(t *testing.T) {
	store := repository.NewMemoryStore()
	flight := store.AddFlight(testFlight(6, 6))
	svc := newTestServices(store, alwaysApprove())
	ctx := context.Background()

	initResp, err := svc.Bookings.Initiate(ctx, models.InitiateBookingRequest{
		FlightID:   flight.ID,
		SeatNumber: "2C",
	})
	require.NoError(t, err)

	resp, err := svc.Bookings.Confirm(ctx, models.ConfirmBookingRequest{
		FlightID:       flight.ID,
		SeatNumber:     "2C",
		PassengerName:  "Alice Smith",
		PassengerEmail: "alice@example.com",
		HoldToken:      initResp.HoldToken,
	})
	require.NoError(t, err)

	assert.Equal(t, "success", resp.Status)
	assert.Len(t, resp.PNR, 8)
	assert.Equal(t, "FS", resp.PNR[:2])
	assert.Greater(t, resp.BookingDetails.BookedPrice, 0.0)

	updated, err := store.GetByID(ctx, flight.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.AvailableSeats)

	// The hold is consumed: the token cannot be reused.
	_, err = svc.Bookings.Confirm(ctx, models.ConfirmBookingRequest{
		FlightID:       flight.ID,
		SeatNumber:     "2C",
		PassengerName:  "Bob Jones",
		PassengerEmail: "bob@example.com",
		HoldToken:      initResp.HoldToken,
	})
	assert.ErrorIs(t, err, apperrors.ErrHoldExpired)
}

func TestConfirmWithUnknownTokenFails(t *testing.T) {
	store := repository.NewMemoryStore()
	flight := store.AddFlight(testFlight(6, 6))
	svc := newTestServices(store, alwaysApprove())

	_, err := svc.Bookings.Confirm(context.Background(), models.ConfirmBookingRequest{
		FlightID:       flight.ID,
		SeatNumber:     "1A",
		PassengerName:  "Alice Smith",
		PassengerEmail: "alice@example.com",
		HoldToken:      "no-such-token",
	})
	assert.ErrorIs(t, err, apperrors.ErrHoldExpired)
}

func TestConfirmExpiredHoldFails(t *testing.T) {
	store := repository.NewMemoryStore()
	flight := store.AddFlight(testFlight(6, 6))
	svc := newTestServices(store, alwaysApprove())
	ctx := context.Background()

	_, err := store.CreateHold(ctx, flight.ID, "1A", "stale-token", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = svc.Bookings.Confirm(ctx, models.ConfirmBookingRequest{
		FlightID:       flight.ID,
		SeatNumber:     "1A",
		PassengerName:  "Alice Smith",
		PassengerEmail: "alice@example.com",
		HoldToken:      "stale-token",
	})
	assert.ErrorIs(t, err, apperrors.ErrHoldExpired)

	// The expired hold no longer blocks anyone else.
	_, err = svc.Bookings.Confirm(ctx, models.ConfirmBookingRequest{
		FlightID:       flight.ID,
		SeatNumber:     "1A",
		PassengerName:  "Bob Jones",
		PassengerEmail: "bob@example.com",
	})
	assert.NoError(t, err)
}

func TestConfirmWithoutTokenRespectsOthersHold(t *testing.T) {
	store := repository.NewMemoryStore()
	flight := store.AddFlight(testFlight(6, 6))
	svc := newTestServices(store, alwaysApprove())
	ctx := context.Background()

	_, err := svc.Bookings.Initiate(ctx, models.InitiateBookingRequest{
		FlightID:   flight.ID,
		SeatNumber: "3D",
	})
	require.NoError(t, err)

	_, err = svc.Bookings.Confirm(ctx, models.ConfirmBookingRequest{
		FlightID:       flight.ID,
		SeatNumber:     "3D",
		PassengerName:  "Mallory",
		PassengerEmail: "mallory@example.com",
	})
	assert.ErrorIs(t, err, apperrors.ErrSeatConflict)
}

func TestConfirmSoldOutFlight(t *testing.T) {
	store := repository.NewMemoryStore()
	flight := store.AddFlight(testFlight(6, 1))
	svc := newTestServices(store, alwaysApprove())
	ctx := context.Background()

	_, err := svc.Bookings.Confirm(ctx, models.ConfirmBookingRequest{
		FlightID:       flight.ID,
		SeatNumber:     "1A",
		PassengerName:  "Alice Smith",
		PassengerEmail: "alice@example.com",
	})
	require.NoError(t, err)

	_, err = svc.Bookings.Confirm(ctx, models.ConfirmBookingRequest{
		FlightID:       flight.ID,
		SeatNumber:     "1B",
		PassengerName:  "Bob Jones",
		PassengerEmail: "bob@example.com",
	})
	assert.ErrorIs(t, err, apperrors.ErrSoldOut)
}

func TestConfirmSameSeatTwiceFails(t *testing.T) {
	store := repository.NewMemoryStore()
	flight := store.AddFlight(testFlight(6, 6))
	svc := newTestServices(store, alwaysApprove())
	ctx := context.Background()

	_, err := svc.Bookings.Confirm(ctx, models.ConfirmBookingRequest{
		FlightID:       flight.ID,
		SeatNumber:     "1A",
		PassengerName:  "Alice Smith",
		PassengerEmail: "alice@example.com",
	})
	require.NoError(t, err)

	_, err = svc.Bookings.Confirm(ctx, models.ConfirmBookingRequest{
		FlightID:       flight.ID,
		SeatNumber:     "1A",
		PassengerName:  "Bob Jones",
		PassengerEmail: "bob@example.com",
	})
	assert.ErrorIs(t, err, apperrors.ErrSeatConflict)
}

func TestPaymentDeclineRollsBackEverything(t *testing.T) {
	store := repository.NewMemoryStore()
	flight := store.AddFlight(testFlight(6, 6))
	declineAll := payment.NewSimulator(payment.Config{SuccessRate: 0}, 1)
	svc := newTestServices(store, declineAll)
	ctx := context.Background()

	_, err := svc.Bookings.Confirm(ctx, models.ConfirmBookingRequest{
		FlightID:       flight.ID,
		SeatNumber:     "1A",
		PassengerName:  "Alice Smith",
		PassengerEmail: "alice@example.com",
	})
	require.ErrorIs(t, err, apperrors.ErrPaymentDeclined)

	updated, err := store.GetByID(ctx, flight.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, updated.AvailableSeats, "seat must be released on decline")

	taken, err := store.SeatsTaken(ctx, flight.ID)
	require.NoError(t, err)
	assert.Empty(t, taken, "no booking row may survive a decline")
}

func TestCancelRestoresSeatExactlyOnce(t *testing.T) {
	store := repository.NewMemoryStore()
	flight := store.AddFlight(testFlight(6, 6))
	svc := newTestServices(store, alwaysApprove())
	ctx := context.Background()

	confirmed, err := svc.Bookings.Confirm(ctx, models.ConfirmBookingRequest{
		FlightID:       flight.ID,
		SeatNumber:     "4F",
		PassengerName:  "Alice Smith",
		PassengerEmail: "alice@example.com",
	})
	require.NoError(t, err)

	cancelResp, err := svc.Bookings.Cancel(ctx, confirmed.PNR)
	require.NoError(t, err)
	assert.True(t, cancelResp.RestoredSeat)

	updated, err := store.GetByID(ctx, flight.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, updated.AvailableSeats)

	booking, err := svc.Bookings.Get(ctx, confirmed.PNR)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, booking.Status)

	_, err = svc.Bookings.Cancel(ctx, confirmed.PNR)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyCancelled)

	updated, err = store.GetByID(ctx, flight.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, updated.AvailableSeats, "double cancel must not restore twice")

	// The seat is sellable again.
	_, err = svc.Bookings.Confirm(ctx, models.ConfirmBookingRequest{
		FlightID:       flight.ID,
		SeatNumber:     "4F",
		PassengerName:  "Bob Jones",
		PassengerEmail: "bob@example.com",
	})
	assert.NoError(t, err)
}

func TestCancelUnknownBooking(t *testing.T) {
	store := repository.NewMemoryStore()
	store.AddFlight(testFlight(6, 6))
	svc := newTestServices(store, alwaysApprove())

	_, err := svc.Bookings.Cancel(context.Background(), "XX000000")
	assert.ErrorIs(t, err, apperrors.ErrBookingNotFound)
}

func TestConcurrentConfirmsNeverOversell(t *testing.T) {
	store := repository.NewMemoryStore()
	flight := store.AddFlight(testFlight(6, 3))
	svc := newTestServices(store, alwaysApprove())
	ctx := context.Background()

	seats := []string{"1A", "1B", "1C", "1D", "1E", "1F"}

	var wg sync.WaitGroup
	results := make([]error, len(seats))
	for i, seat := range seats {
		wg.Add(1)
		go func(i int, seat string) {
			defer wg.Done()
			_, err := svc.Bookings.Confirm(ctx, models.ConfirmBookingRequest{
				FlightID:       flight.ID,
				SeatNumber:     seat,
				PassengerName:  "Passenger",
				PassengerEmail: "p@example.com",
			})
			results[i] = err
		}(i, seat)
	}
	wg.Wait()

	confirmed := 0
	soldOut := 0
	for _, err := range results {
		switch {
		case err == nil:
			confirmed++
		default:
			require.ErrorIs(t, err, apperrors.ErrSoldOut)
			soldOut++
		}
	}

	assert.Equal(t, 3, confirmed)
	assert.Equal(t, 3, soldOut)

	updated, err := store.GetByID(ctx, flight.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.AvailableSeats)

	taken, err := store.SeatsTaken(ctx, flight.ID)
	require.NoError(t, err)
	assert.Len(t, taken, 3)
}

func TestConcurrentConfirmsSameSeatSingleWinner(t *testing.T) {
	store := repository.NewMemoryStore()
	flight := store.AddFlight(testFlight(6, 6))
	svc := newTestServices(store, alwaysApprove())
	ctx := context.Background()

	const racers = 8
	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Bookings.Confirm(ctx, models.ConfirmBookingRequest{
				FlightID:       flight.ID,
				SeatNumber:     "2B",
				PassengerName:  "Racer",
				PassengerEmail: "racer@example.com",
			})
			results[i] = err
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, apperrors.ErrSeatConflict)
		}
	}
	assert.Equal(t, 1, winners)

	updated, err := store.GetByID(ctx, flight.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.AvailableSeats)
}

func TestConfirmEnqueuesConfirmationEmail(t *testing.T) {
	store := repository.NewMemoryStore()
	flight := store.AddFlight(testFlight(6, 6))
	svc := newTestServices(store, alwaysApprove())
	ctx := context.Background()

	confirmed, err := svc.Bookings.Confirm(ctx, models.ConfirmBookingRequest{
		FlightID:       flight.ID,
		SeatNumber:     "1A",
		PassengerName:  "Alice Smith",
		PassengerEmail: "alice@example.com",
	})
	require.NoError(t, err)

	pending, err := store.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "alice@example.com", pending[0].ToEmail)
	assert.Contains(t, pending[0].Subject, confirmed.PNR)
}

func TestBookingHistoryAndReceipt(t *testing.T) {
	store := repository.NewMemoryStore()
	flight := store.AddFlight(testFlight(6, 6))
	svc := newTestServices(store, alwaysApprove())
	ctx := context.Background()

	confirmed, err := svc.Bookings.Confirm(ctx, models.ConfirmBookingRequest{
		FlightID:       flight.ID,
		SeatNumber:     "1A",
		PassengerName:  "Alice Smith",
		PassengerEmail: "alice@example.com",
	})
	require.NoError(t, err)

	history, err := svc.Bookings.History(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, confirmed.PNR, history[0].PNR)

	receipt, err := svc.Bookings.Receipt(ctx, confirmed.PNR)
	require.NoError(t, err)
	assert.Equal(t, confirmed.PNR, receipt.PNR)
	assert.Equal(t, "FS100", receipt.FlightNumber)
	assert.Equal(t, models.BookingConfirmed, receipt.Status)

	_, err = svc.Bookings.Receipt(ctx, "XX999999")
	assert.ErrorIs(t, err, apperrors.ErrBookingNotFound)
}
