package repository

import (
	"context"
	"fmt"

	"flightsim/internal/database"
	"flightsim/internal/models"
)

// FareHistoryRepository records significant fare movements.
type FareHistoryRepository struct {
	db *database.DB
}

func NewFareHistoryRepository(db *database.DB) *FareHistoryRepository {
	return &FareHistoryRepository{db: db}
}

// Record appends one fare change.
func (r *FareHistoryRepository) Record(ctx context.Context, entry *models.FareHistoryEntry) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO fare_history (flight_id, old_price, new_price, demand_level, available_seats)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, timestamp`,
		entry.FlightID, entry.OldPrice, entry.NewPrice, entry.DemandLevel, entry.AvailableSeats).
		Scan(&entry.ID, &entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to record fare change: %w", err)
	}
	return nil
}

// ListByFlight returns recent fare changes for a flight, newest first.
func (r *FareHistoryRepository) ListByFlight(ctx context.Context, flightID int64, limit int) ([]models.FareHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, flight_id, timestamp, old_price, new_price, demand_level, available_seats
		FROM fare_history
		WHERE flight_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`, flightID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list fare history for flight %d: %w", flightID, err)
	}
	defer rows.Close()

	var entries []models.FareHistoryEntry
	for rows.Next() {
		var e models.FareHistoryEntry
		if err := rows.Scan(&e.ID, &e.FlightID, &e.Timestamp, &e.OldPrice, &e.NewPrice,
			&e.DemandLevel, &e.AvailableSeats); err != nil {
			return nil, fmt.Errorf("failed to scan fare history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
