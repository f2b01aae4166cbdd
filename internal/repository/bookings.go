package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/lib/pq"

	"flightsim/internal/database"
	apperrors "flightsim/internal/errors"
	"flightsim/internal/models"
	"flightsim/internal/pricing"
	"flightsim/internal/service"
)

// pnrAttempts bounds the reservation code retry loop. Collisions are
// rare enough that hitting the bound means something else is wrong.
const pnrAttempts = 5

const pnrAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// BookingRepository owns the booking ledger and the confirm/cancel
// transactions.
type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// ConfirmAtomic settles one booking in a single transaction: hold
// check, locked inventory re-read, seat decrement, fresh fare, payment
// and ledger insert. Any error rolls everything back.
func (r *BookingRepository) ConfirmAtomic(ctx context.Context, p service.ConfirmParams, charge service.ChargeFunc) (*models.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin booking transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	if p.HoldToken != "" {
		var expiresAt time.Time
		err = tx.QueryRowContext(ctx, `
			SELECT expires_at FROM seat_holds
			WHERE flight_id = $1 AND seat_number = $2 AND token = $3`,
			p.FlightID, p.SeatNumber, p.HoldToken).Scan(&expiresAt)
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrHoldExpired
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load hold: %w", err)
		}
		if !expiresAt.After(now) {
			return nil, apperrors.ErrHoldExpired
		}
	} else {
		var held bool
		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM seat_holds
				WHERE flight_id = $1 AND seat_number = $2 AND expires_at > $3
			)`, p.FlightID, p.SeatNumber, now).Scan(&held)
		if err != nil {
			return nil, fmt.Errorf("failed to check seat hold: %w", err)
		}
		if held {
			return nil, apperrors.ErrSeatConflict
		}
	}

	var (
		flightNumber string
		airlineCode  string
		basePrice    float64
		totalSeats   int
		available    int
		departure    time.Time
	)
	err = tx.QueryRowContext(ctx, `
		SELECT f.flight_number, al.code, f.base_price, f.total_seats, f.available_seats, f.departure
		FROM flights f
		JOIN airlines al ON al.id = f.airline_id
		WHERE f.id = $1
		FOR UPDATE OF f`, p.FlightID).Scan(
		&flightNumber, &airlineCode, &basePrice, &totalSeats, &available, &departure)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrFlightNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock flight %d: %w", p.FlightID, err)
	}

	if available <= 0 {
		return nil, apperrors.ErrSoldOut
	}

	var taken bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE flight_id = $1 AND seat_number = $2 AND status = $3
		)`, p.FlightID, p.SeatNumber, models.BookingConfirmed).Scan(&taken)
	if err != nil {
		return nil, fmt.Errorf("failed to check seat occupancy: %w", err)
	}
	if taken {
		return nil, apperrors.ErrSeatConflict
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE flights SET available_seats = available_seats - 1 WHERE id = $1`, p.FlightID)
	if err != nil {
		return nil, fmt.Errorf("failed to decrement seats: %w", err)
	}

	demand := pricing.NeutralDemand
	err = tx.QueryRowContext(ctx,
		`SELECT demand_level FROM demand_levels WHERE flight_id = $1`, p.FlightID).Scan(&demand)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to load demand level: %w", err)
	}

	// Price the seat with the post-decrement availability so the buyer
	// pays for the scarcity they created.
	price := pricing.Compute(pricing.Inputs{
		BasePrice:      basePrice,
		TotalSeats:     totalSeats,
		AvailableSeats: available - 1,
		Departure:      departure,
		DemandLevel:    demand,
		Now:            now,
	})

	if err := charge(price); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		FlightID:       p.FlightID,
		SeatNumber:     p.SeatNumber,
		PassengerName:  p.PassengerName,
		PassengerEmail: p.PassengerEmail,
		Status:         models.BookingConfirmed,
		BookedPrice:    price,
		PaymentStatus:  "paid",
		FlightNumber:   flightNumber,
	}

	inserted := false
	for attempt := 0; attempt < pnrAttempts; attempt++ {
		pnr := generatePNR(airlineCode)
		err = tx.QueryRowContext(ctx, `
			INSERT INTO bookings (pnr, flight_id, seat_number, passenger_name, passenger_email, status, booked_price, payment_status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, booking_date`,
			pnr, p.FlightID, p.SeatNumber, p.PassengerName, p.PassengerEmail,
			models.BookingConfirmed, price, "paid").Scan(&booking.ID, &booking.BookingDate)
		if err == nil {
			booking.PNR = pnr
			inserted = true
			break
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			continue
		}
		return nil, fmt.Errorf("failed to insert booking: %w", err)
	}
	if !inserted {
		return nil, fmt.Errorf("failed to allocate a unique reservation code after %d attempts", pnrAttempts)
	}

	if p.HoldToken != "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM seat_holds WHERE token = $1`, p.HoldToken); err != nil {
			return nil, fmt.Errorf("failed to consume hold: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}
	return booking, nil
}

// CancelAtomic flips a confirmed booking to cancelled and restores the
// seat in the same transaction. A second cancel of the same booking
// returns ErrAlreadyCancelled.
func (r *BookingRepository) CancelAtomic(ctx context.Context, pnr string) (*models.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin cancel transaction: %w", err)
	}
	defer tx.Rollback()

	var b models.Booking
	err = tx.QueryRowContext(ctx, `
		SELECT b.id, b.pnr, b.flight_id, b.seat_number, b.passenger_name, b.passenger_email,
		       b.status, b.booked_price, b.payment_status, b.booking_date, f.flight_number
		FROM bookings b
		JOIN flights f ON f.id = b.flight_id
		WHERE b.pnr = $1
		FOR UPDATE OF b`, pnr).Scan(
		&b.ID, &b.PNR, &b.FlightID, &b.SeatNumber, &b.PassengerName, &b.PassengerEmail,
		&b.Status, &b.BookedPrice, &b.PaymentStatus, &b.BookingDate, &b.FlightNumber)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock booking %s: %w", pnr, err)
	}

	if b.Status == models.BookingCancelled {
		return nil, apperrors.ErrAlreadyCancelled
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = $1 WHERE id = $2`, models.BookingCancelled, b.ID); err != nil {
		return nil, fmt.Errorf("failed to cancel booking %s: %w", pnr, err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE flights SET available_seats = LEAST(available_seats + 1, total_seats)
		WHERE id = $1`, b.FlightID); err != nil {
		return nil, fmt.Errorf("failed to restore seat: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	b.Status = models.BookingCancelled
	return &b, nil
}

// GetByPNR loads one booking with flight and airline details.
func (r *BookingRepository) GetByPNR(ctx context.Context, pnr string) (*models.Booking, error) {
	var b models.Booking
	err := r.db.QueryRowContext(ctx, `
		SELECT b.id, b.pnr, b.flight_id, b.seat_number, b.passenger_name, b.passenger_email,
		       b.status, b.booked_price, b.payment_status, b.booking_date,
		       f.flight_number, al.name
		FROM bookings b
		JOIN flights f ON f.id = b.flight_id
		JOIN airlines al ON al.id = f.airline_id
		WHERE b.pnr = $1`, pnr).Scan(
		&b.ID, &b.PNR, &b.FlightID, &b.SeatNumber, &b.PassengerName, &b.PassengerEmail,
		&b.Status, &b.BookedPrice, &b.PaymentStatus, &b.BookingDate,
		&b.FlightNumber, &b.AirlineName)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking %s: %w", pnr, err)
	}
	return &b, nil
}

// ListByEmail returns a passenger's bookings, newest first.
func (r *BookingRepository) ListByEmail(ctx context.Context, email string) ([]models.Booking, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.pnr, b.flight_id, b.seat_number, b.passenger_name, b.passenger_email,
		       b.status, b.booked_price, b.payment_status, b.booking_date,
		       f.flight_number, al.name
		FROM bookings b
		JOIN flights f ON f.id = b.flight_id
		JOIN airlines al ON al.id = f.airline_id
		WHERE b.passenger_email = $1
		ORDER BY b.booking_date DESC`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for %s: %w", email, err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(
			&b.ID, &b.PNR, &b.FlightID, &b.SeatNumber, &b.PassengerName, &b.PassengerEmail,
			&b.Status, &b.BookedPrice, &b.PaymentStatus, &b.BookingDate,
			&b.FlightNumber, &b.AirlineName); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// SeatsTaken returns the confirmed seat numbers for a flight.
func (r *BookingRepository) SeatsTaken(ctx context.Context, flightID int64) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT seat_number FROM bookings
		WHERE flight_id = $1 AND status = $2`, flightID, models.BookingConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to list taken seats: %w", err)
	}
	defer rows.Close()

	taken := make(map[string]bool)
	for rows.Next() {
		var seat string
		if err := rows.Scan(&seat); err != nil {
			return nil, fmt.Errorf("failed to scan seat: %w", err)
		}
		taken[seat] = true
	}
	return taken, rows.Err()
}

func generatePNR(airlineCode string) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = pnrAlphabet[rand.Intn(len(pnrAlphabet))]
	}
	return airlineCode + string(suffix)
}
