package service

import (
	"context"
	"time"

	"flightsim/internal/models"
)

// ChargeFunc runs the payment step inside the booking transaction. The
// amount is the freshly computed fare. A non-nil error aborts the
// transaction and releases the seat.
type ChargeFunc func(amount float64) error

// ConfirmParams carries everything needed to settle one booking.
type ConfirmParams struct {
	FlightID       int64
	SeatNumber     string
	PassengerName  string
	PassengerEmail string
	// HoldToken is optional. When present the matching unexpired hold
	// must exist; when absent the seat must carry no one else's hold.
	HoldToken string
}

// FlightStore reads and mutates flight inventory.
type FlightStore interface {
	GetByID(ctx context.Context, id int64) (*models.Flight, error)
	List(ctx context.Context) ([]models.Flight, error)
	Search(ctx context.Context, q models.SearchQuery) ([]models.Flight, error)
	ListRandom(ctx context.Context, limit int) ([]models.Flight, error)
	// DecrementSeats atomically takes up to n seats and returns how many
	// were actually taken, never driving available_seats below zero.
	DecrementSeats(ctx context.Context, flightID int64, n int) (int, error)
	Stats(ctx context.Context) (*models.FlightStats, error)
	ListAirlines(ctx context.Context) ([]models.Airline, error)
	ListAirports(ctx context.Context) ([]models.Airport, error)
}

// DemandStore manages per-flight demand multipliers. Get returns the
// neutral 1.0 for flights with no stored level.
type DemandStore interface {
	Get(ctx context.Context, flightID int64) (float64, error)
	Set(ctx context.Context, flightID int64, level float64) error
}

// HoldStore manages advisory seat holds. Expired holds are swept lazily
// by SweepExpired, never by a background timer.
type HoldStore interface {
	SweepExpired(ctx context.Context, flightID int64) (int, error)
	CreateHold(ctx context.Context, flightID int64, seatNumber, token string, expiresAt time.Time) (*models.SeatHold, error)
	ValidateHold(ctx context.Context, flightID int64, seatNumber, token string) error
	HeldByOther(ctx context.Context, flightID int64, seatNumber, token string) (bool, error)
	ListActive(ctx context.Context, flightID int64) ([]models.SeatHold, error)
}

// BookingStore owns the transactional booking ledger. ConfirmAtomic and
// CancelAtomic each run as a single transaction.
type BookingStore interface {
	// ConfirmAtomic re-reads inventory under lock, decrements the seat
	// count, computes the fresh fare, runs charge with it, allocates a
	// unique reservation code and inserts the booking. Any failure rolls
	// the whole transaction back.
	ConfirmAtomic(ctx context.Context, p ConfirmParams, charge ChargeFunc) (*models.Booking, error)
	// CancelAtomic flips a confirmed booking to cancelled and restores
	// the seat in the same transaction.
	CancelAtomic(ctx context.Context, pnr string) (*models.Booking, error)
	GetByPNR(ctx context.Context, pnr string) (*models.Booking, error)
	ListByEmail(ctx context.Context, email string) ([]models.Booking, error)
	// SeatsTaken returns the confirmed seat numbers for a flight.
	SeatsTaken(ctx context.Context, flightID int64) (map[string]bool, error)
}

// FareHistoryStore records significant fare movements.
type FareHistoryStore interface {
	Record(ctx context.Context, entry *models.FareHistoryEntry) error
	ListByFlight(ctx context.Context, flightID int64, limit int) ([]models.FareHistoryEntry, error)
}

// UserStore manages API accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// EmailStore is the outbound email queue.
type EmailStore interface {
	Enqueue(ctx context.Context, toEmail, subject, body string) error
	ListPending(ctx context.Context, limit int) ([]models.QueuedEmail, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, attempts, maxAttempts int, sendErr string) error
	ListRecent(ctx context.Context, limit int) ([]models.QueuedEmail, error)
	// Retry puts a parked failed message back on the queue.
	Retry(ctx context.Context, id int64) error
}
