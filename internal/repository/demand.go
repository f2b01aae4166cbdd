package repository

import (
	"context"
	"database/sql"
	"fmt"

	"flightsim/internal/database"
	"flightsim/internal/pricing"
)

// DemandRepository stores per-flight demand multipliers.
type DemandRepository struct {
	db *database.DB
}

func NewDemandRepository(db *database.DB) *DemandRepository {
	return &DemandRepository{db: db}
}

// Get returns the demand level for a flight, defaulting to the neutral
// 1.0 when no row exists.
func (r *DemandRepository) Get(ctx context.Context, flightID int64) (float64, error) {
	var level float64
	err := r.db.QueryRowContext(ctx,
		`SELECT demand_level FROM demand_levels WHERE flight_id = $1`, flightID).Scan(&level)
	if err == sql.ErrNoRows {
		return pricing.NeutralDemand, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get demand for flight %d: %w", flightID, err)
	}
	return level, nil
}

// Set upserts the demand level for a flight.
func (r *DemandRepository) Set(ctx context.Context, flightID int64, level float64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO demand_levels (flight_id, demand_level, last_updated)
		VALUES ($1, $2, NOW())
		ON CONFLICT (flight_id)
		DO UPDATE SET demand_level = EXCLUDED.demand_level, last_updated = NOW()`,
		flightID, level)
	if err != nil {
		return fmt.Errorf("failed to set demand for flight %d: %w", flightID, err)
	}
	return nil
}
