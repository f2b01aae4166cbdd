package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"flightsim/internal/database"
	apperrors "flightsim/internal/errors"
	"flightsim/internal/models"
)

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

// HoldRepository manages advisory seat holds.
type HoldRepository struct {
	db *database.DB
}

func NewHoldRepository(db *database.DB) *HoldRepository {
	return &HoldRepository{db: db}
}

// SweepExpired deletes every expired hold on a flight and returns how
// many rows were removed.
func (r *HoldRepository) SweepExpired(ctx context.Context, flightID int64) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM seat_holds WHERE flight_id = $1 AND expires_at <= NOW()`, flightID)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep holds for flight %d: %w", flightID, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// CreateHold claims a seat until expiresAt. A stale hold left on the
// seat is replaced in place, so an expired hold never blocks a new one.
// Only a concurrent live hold surfaces as ErrSeatConflict; the normal
// rejection path for a held seat is the HeldByOther check in the
// initiate workflow.
func (r *HoldRepository) CreateHold(ctx context.Context, flightID int64, seatNumber, token string, expiresAt time.Time) (*models.SeatHold, error) {
	hold := &models.SeatHold{
		FlightID:   flightID,
		SeatNumber: seatNumber,
		Token:      token,
		ExpiresAt:  expiresAt,
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO seat_holds (flight_id, seat_number, token, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (flight_id, seat_number) DO UPDATE
		SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at, created_at = NOW()
		WHERE seat_holds.expires_at <= NOW()
		RETURNING id, created_at`,
		flightID, seatNumber, token, expiresAt).Scan(&hold.ID, &hold.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrSeatConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create hold: %w", err)
	}
	return hold, nil
}

// ValidateHold checks that the token still holds the seat. A missing or
// expired hold returns ErrHoldExpired; expired rows are deleted on the
// way out.
func (r *HoldRepository) ValidateHold(ctx context.Context, flightID int64, seatNumber, token string) error {
	var expiresAt time.Time
	err := r.db.QueryRowContext(ctx, `
		SELECT expires_at FROM seat_holds
		WHERE flight_id = $1 AND seat_number = $2 AND token = $3`,
		flightID, seatNumber, token).Scan(&expiresAt)
	if err == sql.ErrNoRows {
		return apperrors.ErrHoldExpired
	}
	if err != nil {
		return fmt.Errorf("failed to validate hold: %w", err)
	}
	if !expiresAt.After(time.Now()) {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM seat_holds WHERE token = $1`, token); err != nil {
			return fmt.Errorf("failed to drop expired hold: %w", err)
		}
		return apperrors.ErrHoldExpired
	}
	return nil
}

// HeldByOther reports whether someone else has a live hold on the seat.
func (r *HoldRepository) HeldByOther(ctx context.Context, flightID int64, seatNumber, token string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM seat_holds
			WHERE flight_id = $1 AND seat_number = $2
			  AND token <> $3 AND expires_at > NOW()
		)`, flightID, seatNumber, token).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check hold on seat %s: %w", seatNumber, err)
	}
	return exists, nil
}

// ListActive returns the unexpired holds on a flight.
func (r *HoldRepository) ListActive(ctx context.Context, flightID int64) ([]models.SeatHold, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, flight_id, seat_number, token, created_at, expires_at
		FROM seat_holds
		WHERE flight_id = $1 AND expires_at > NOW()`, flightID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holds for flight %d: %w", flightID, err)
	}
	defer rows.Close()

	var holds []models.SeatHold
	for rows.Next() {
		var h models.SeatHold
		if err := rows.Scan(&h.ID, &h.FlightID, &h.SeatNumber, &h.Token, &h.CreatedAt, &h.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan hold: %w", err)
		}
		holds = append(holds, h)
	}
	return holds, rows.Err()
}
