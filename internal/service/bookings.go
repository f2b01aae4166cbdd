package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"flightsim/internal/cache"
	apperrors "flightsim/internal/errors"
	"flightsim/internal/logger"
	"flightsim/internal/messaging"
	"flightsim/internal/metrics"
	"flightsim/internal/models"
	"flightsim/internal/payment"
	"flightsim/internal/seatmap"
)

// BookingService drives the two-step booking workflow.
type BookingService struct {
	stores     Stores
	flights    *FlightService
	gateway    payment.Gateway
	publisher  messaging.Publisher
	priceCache *cache.Cache
	holdTTL    time.Duration
}

func NewBookingService(stores Stores, flights *FlightService, deps Deps) *BookingService {
	return &BookingService{
		stores:     stores,
		flights:    flights,
		gateway:    deps.Gateway,
		publisher:  deps.Publisher,
		priceCache: deps.PriceCache,
		holdTTL:    deps.HoldTTL,
	}
}

// Initiate places a time-boxed hold on a seat and quotes the current
// fare. The quote is informational; the fare is recomputed at confirm
// time.
func (s *BookingService) Initiate(ctx context.Context, req models.InitiateBookingRequest) (*models.InitiateBookingResponse, error) {
	flight, err := s.stores.Flights.GetByID(ctx, req.FlightID)
	if err != nil {
		return nil, err
	}

	if !seatmap.Valid(req.SeatNumber, flight.TotalSeats) {
		return nil, fmt.Errorf("seat %s on flight %d: %w", req.SeatNumber, flight.ID, apperrors.ErrInvalidSeat)
	}
	if flight.AvailableSeats <= 0 {
		return nil, apperrors.ErrSoldOut
	}

	swept, err := s.stores.Holds.SweepExpired(ctx, req.FlightID)
	if err != nil {
		return nil, err
	}
	if swept > 0 {
		metrics.HoldsExpired.Add(float64(swept))
	}

	taken, err := s.stores.Bookings.SeatsTaken(ctx, req.FlightID)
	if err != nil {
		return nil, err
	}
	if taken[req.SeatNumber] {
		return nil, fmt.Errorf("seat %s on flight %d: %w", req.SeatNumber, flight.ID, apperrors.ErrSeatConflict)
	}

	// The requester has no token yet, so any live hold blocks.
	held, err := s.stores.Holds.HeldByOther(ctx, req.FlightID, req.SeatNumber, "")
	if err != nil {
		return nil, err
	}
	if held {
		return nil, fmt.Errorf("seat %s on flight %d: %w", req.SeatNumber, flight.ID, apperrors.ErrSeatConflict)
	}

	token := uuid.New().String()
	hold, err := s.stores.Holds.CreateHold(ctx, req.FlightID, req.SeatNumber, token, time.Now().Add(s.holdTTL))
	if err != nil {
		return nil, err
	}
	metrics.HoldsCreated.Inc()

	price, err := s.flights.priceFor(ctx, flight)
	if err != nil {
		return nil, err
	}

	logger.Get().Info("seat hold created",
		"flight_id", req.FlightID,
		"seat", req.SeatNumber,
		"expires_at", hold.ExpiresAt,
	)

	return &models.InitiateBookingResponse{
		Status:        "success",
		FlightID:      flight.ID,
		FlightNumber:  flight.FlightNumber,
		SeatNumber:    req.SeatNumber,
		CurrentPrice:  price,
		HoldToken:     token,
		HoldExpiresAt: hold.ExpiresAt,
	}, nil
}

// Confirm settles a booking: the storage transaction re-checks the
// hold, locks inventory, recomputes the fare and charges it through the
// payment gateway, rolling everything back on a decline.
func (s *BookingService) Confirm(ctx context.Context, req models.ConfirmBookingRequest) (*models.ConfirmBookingResponse, error) {
	flight, err := s.stores.Flights.GetByID(ctx, req.FlightID)
	if err != nil {
		return nil, err
	}
	if !seatmap.Valid(req.SeatNumber, flight.TotalSeats) {
		return nil, fmt.Errorf("seat %s on flight %d: %w", req.SeatNumber, flight.ID, apperrors.ErrInvalidSeat)
	}

	swept, err := s.stores.Holds.SweepExpired(ctx, req.FlightID)
	if err != nil {
		return nil, err
	}
	if swept > 0 {
		metrics.HoldsExpired.Add(float64(swept))
	}

	// Fast-fail on a dead token before opening the transaction. The
	// transaction re-validates the hold under its own lock.
	if req.HoldToken != "" {
		if err := s.stores.Holds.ValidateHold(ctx, req.FlightID, req.SeatNumber, req.HoldToken); err != nil {
			return nil, err
		}
	}

	booking, err := s.stores.Bookings.ConfirmAtomic(ctx, ConfirmParams{
		FlightID:       req.FlightID,
		SeatNumber:     req.SeatNumber,
		PassengerName:  req.PassengerName,
		PassengerEmail: req.PassengerEmail,
		HoldToken:      req.HoldToken,
	}, func(amount float64) error {
		_, chargeErr := s.gateway.Charge(ctx, amount, fmt.Sprintf("flight-%d-seat-%s", req.FlightID, req.SeatNumber))
		return chargeErr
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrPaymentDeclined) {
			metrics.PaymentsDeclined.Inc()
			logger.Get().Warn("payment declined, booking rolled back",
				"flight_id", req.FlightID,
				"seat", req.SeatNumber,
			)
		}
		return nil, err
	}

	metrics.BookingsConfirmed.Inc()
	if s.priceCache != nil {
		s.priceCache.InvalidatePrice(ctx, req.FlightID)
	}

	s.enqueueConfirmationEmail(ctx, booking)

	if err := s.publisher.Publish(models.EventBookingConfirmed, models.BookingConfirmedEvent{
		PNR:         booking.PNR,
		FlightID:    booking.FlightID,
		SeatNumber:  booking.SeatNumber,
		BookedPrice: booking.BookedPrice,
		Timestamp:   time.Now(),
	}); err != nil {
		logger.Get().Warn("failed to publish booking confirmation", "pnr", booking.PNR, "error", err)
	}

	logger.Get().Info("booking confirmed",
		"pnr", booking.PNR,
		"flight_id", booking.FlightID,
		"seat", booking.SeatNumber,
		"price", booking.BookedPrice,
	)

	return &models.ConfirmBookingResponse{
		Status: "success",
		PNR:    booking.PNR,
		BookingDetails: models.BookingDetails{
			FlightNumber:   booking.FlightNumber,
			PassengerName:  booking.PassengerName,
			PassengerEmail: booking.PassengerEmail,
			SeatNumber:     booking.SeatNumber,
			BookedPrice:    booking.BookedPrice,
			BookingDate:    booking.BookingDate,
		},
	}, nil
}

// Cancel voids a confirmed booking and returns the seat to inventory.
// The booked price is kept for the record, never refunded pro rata.
func (s *BookingService) Cancel(ctx context.Context, pnr string) (*models.CancelBookingResponse, error) {
	booking, err := s.stores.Bookings.CancelAtomic(ctx, pnr)
	if err != nil {
		return nil, err
	}

	metrics.BookingsCancelled.Inc()
	if s.priceCache != nil {
		s.priceCache.InvalidatePrice(ctx, booking.FlightID)
	}

	if err := s.stores.Emails.Enqueue(ctx, booking.PassengerEmail,
		fmt.Sprintf("Booking %s cancelled", booking.PNR),
		fmt.Sprintf("Your booking %s for flight %s, seat %s has been cancelled.",
			booking.PNR, booking.FlightNumber, booking.SeatNumber)); err != nil {
		logger.Get().Warn("failed to enqueue cancellation email", "pnr", booking.PNR, "error", err)
	}

	if err := s.publisher.Publish(models.EventBookingCancelled, models.BookingCancelledEvent{
		PNR:       booking.PNR,
		FlightID:  booking.FlightID,
		Reason:    "passenger_request",
		Timestamp: time.Now(),
	}); err != nil {
		logger.Get().Warn("failed to publish booking cancellation", "pnr", booking.PNR, "error", err)
	}

	logger.Get().Info("booking cancelled", "pnr", booking.PNR, "flight_id", booking.FlightID)

	return &models.CancelBookingResponse{
		Status:       "success",
		Message:      fmt.Sprintf("Booking %s cancelled", booking.PNR),
		RestoredSeat: true,
	}, nil
}

// Get loads one booking by reservation code.
func (s *BookingService) Get(ctx context.Context, pnr string) (*models.Booking, error) {
	return s.stores.Bookings.GetByPNR(ctx, pnr)
}

// History returns a passenger's bookings, newest first.
func (s *BookingService) History(ctx context.Context, email string) ([]models.Booking, error) {
	return s.stores.Bookings.ListByEmail(ctx, email)
}

// Receipt builds the receipt payload for a booking.
func (s *BookingService) Receipt(ctx context.Context, pnr string) (*models.ReceiptPayload, error) {
	booking, err := s.stores.Bookings.GetByPNR(ctx, pnr)
	if err != nil {
		return nil, err
	}
	return &models.ReceiptPayload{
		PNR:            booking.PNR,
		FlightNumber:   booking.FlightNumber,
		Airline:        booking.AirlineName,
		PassengerName:  booking.PassengerName,
		PassengerEmail: booking.PassengerEmail,
		SeatNumber:     booking.SeatNumber,
		BookedPrice:    booking.BookedPrice,
		Status:         booking.Status,
		BookingDate:    booking.BookingDate,
	}, nil
}

func (s *BookingService) enqueueConfirmationEmail(ctx context.Context, booking *models.Booking) {
	body := fmt.Sprintf(
		"Dear %s,\n\nYour booking is confirmed.\n\nReservation code: %s\nFlight: %s\nSeat: %s\nPrice: %.2f\n\nThank you for flying with us.",
		booking.PassengerName, booking.PNR, booking.FlightNumber, booking.SeatNumber, booking.BookedPrice)
	if err := s.stores.Emails.Enqueue(ctx, booking.PassengerEmail,
		fmt.Sprintf("Booking confirmed: %s", booking.PNR), body); err != nil {
		logger.Get().Warn("failed to enqueue confirmation email", "pnr", booking.PNR, "error", err)
	}
}
