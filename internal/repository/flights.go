package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"flightsim/internal/database"
	apperrors "flightsim/internal/errors"
	"flightsim/internal/models"
)

// FlightRepository reads and mutates flight inventory in Postgres.
type FlightRepository struct {
	db *database.DB
}

func NewFlightRepository(db *database.DB) *FlightRepository {
	return &FlightRepository{db: db}
}

const flightSelect = `
	SELECT f.id, f.flight_number, f.airline_id, f.origin_id, f.destination_id,
	       f.departure, f.arrival, f.base_price, f.total_seats, f.available_seats,
	       f.duration_mins,
	       al.name, al.code,
	       o.city, o.iata_code,
	       d.city, d.iata_code
	FROM flights f
	JOIN airlines al ON al.id = f.airline_id
	JOIN airports o ON o.id = f.origin_id
	JOIN airports d ON d.id = f.destination_id`

func scanFlight(row interface{ Scan(...any) error }) (*models.Flight, error) {
	var f models.Flight
	err := row.Scan(
		&f.ID, &f.FlightNumber, &f.AirlineID, &f.OriginID, &f.DestinationID,
		&f.Departure, &f.Arrival, &f.BasePrice, &f.TotalSeats, &f.AvailableSeats,
		&f.DurationMins,
		&f.AirlineName, &f.AirlineCode,
		&f.OriginCity, &f.OriginIATA,
		&f.DestinationCity, &f.DestinationIATA,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetByID loads one flight with its airline and airport details.
func (r *FlightRepository) GetByID(ctx context.Context, id int64) (*models.Flight, error) {
	row := r.db.QueryRowContext(ctx, flightSelect+` WHERE f.id = $1`, id)
	flight, err := scanFlight(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrFlightNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get flight %d: %w", id, err)
	}
	return flight, nil
}

// List returns all flights ordered by departure.
func (r *FlightRepository) List(ctx context.Context) ([]models.Flight, error) {
	rows, err := r.db.QueryContext(ctx, flightSelect+` ORDER BY f.departure`)
	if err != nil {
		return nil, fmt.Errorf("failed to list flights: %w", err)
	}
	defer rows.Close()
	return collectFlights(rows)
}

// Search filters flights by route, date, price and availability. Origin
// and destination match city names or IATA codes case-insensitively.
func (r *FlightRepository) Search(ctx context.Context, q models.SearchQuery) ([]models.Flight, error) {
	var conditions []string
	var args []any

	addArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Origin != "" {
		p := addArg(q.Origin)
		conditions = append(conditions, fmt.Sprintf("(o.city ILIKE %s OR o.iata_code ILIKE %s)", p, p))
	}
	if q.Destination != "" {
		p := addArg(q.Destination)
		conditions = append(conditions, fmt.Sprintf("(d.city ILIKE %s OR d.iata_code ILIKE %s)", p, p))
	}
	if q.Date != "" {
		conditions = append(conditions, fmt.Sprintf("DATE(f.departure) = %s", addArg(q.Date)))
	}
	if q.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("f.base_price >= %s", addArg(*q.MinPrice)))
	}
	if q.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("f.base_price <= %s", addArg(*q.MaxPrice)))
	}
	if q.MinSeats != nil {
		conditions = append(conditions, fmt.Sprintf("f.available_seats >= %s", addArg(*q.MinSeats)))
	}

	query := flightSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	switch q.Sort {
	case "price":
		query += " ORDER BY f.base_price"
	case "duration":
		query += " ORDER BY f.duration_mins"
	default:
		query += " ORDER BY f.departure"
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search flights: %w", err)
	}
	defer rows.Close()
	return collectFlights(rows)
}

// ListRandom samples up to limit future flights for the market
// simulation.
func (r *FlightRepository) ListRandom(ctx context.Context, limit int) ([]models.Flight, error) {
	rows, err := r.db.QueryContext(ctx,
		flightSelect+` WHERE f.departure > NOW() ORDER BY RANDOM() LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to sample flights: %w", err)
	}
	defer rows.Close()
	return collectFlights(rows)
}

// DecrementSeats takes up to n seats off a flight under a row lock and
// returns how many were actually taken.
func (r *FlightRepository) DecrementSeats(ctx context.Context, flightID int64, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var available int
	err = tx.QueryRowContext(ctx,
		`SELECT available_seats FROM flights WHERE id = $1 FOR UPDATE`, flightID).Scan(&available)
	if err == sql.ErrNoRows {
		return 0, apperrors.ErrFlightNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to lock flight %d: %w", flightID, err)
	}

	take := n
	if take > available {
		take = available
	}
	if take == 0 {
		return 0, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE flights SET available_seats = available_seats - $1 WHERE id = $2`, take, flightID)
	if err != nil {
		return 0, fmt.Errorf("failed to decrement seats on flight %d: %w", flightID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit seat decrement: %w", err)
	}
	return take, nil
}

// Stats aggregates inventory totals across the catalog.
func (r *FlightRepository) Stats(ctx context.Context) (*models.FlightStats, error) {
	var s models.FlightStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total_seats), 0),
		       COALESCE(SUM(available_seats), 0),
		       COALESCE(MIN(base_price), 0),
		       COALESCE(MAX(base_price), 0),
		       COALESCE(AVG(base_price), 0)
		FROM flights`).Scan(
		&s.TotalFlights, &s.TotalSeats, &s.AvailableSeats,
		&s.MinBasePrice, &s.MaxBasePrice, &s.AvgBasePrice)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate flight stats: %w", err)
	}

	s.OccupiedSeats = s.TotalSeats - s.AvailableSeats
	if s.TotalSeats > 0 {
		s.OccupancyRate = float64(s.OccupiedSeats) / float64(s.TotalSeats) * 100
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM airlines`).Scan(&s.TotalAirlines); err != nil {
		return nil, fmt.Errorf("failed to count airlines: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM airports`).Scan(&s.TotalAirports); err != nil {
		return nil, fmt.Errorf("failed to count airports: %w", err)
	}
	return &s, nil
}

// ListAirlines returns the airline catalog.
func (r *FlightRepository) ListAirlines(ctx context.Context) ([]models.Airline, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, code FROM airlines ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list airlines: %w", err)
	}
	defer rows.Close()

	var airlines []models.Airline
	for rows.Next() {
		var a models.Airline
		if err := rows.Scan(&a.ID, &a.Name, &a.Code); err != nil {
			return nil, fmt.Errorf("failed to scan airline: %w", err)
		}
		airlines = append(airlines, a)
	}
	return airlines, rows.Err()
}

// ListAirports returns the airport catalog.
func (r *FlightRepository) ListAirports(ctx context.Context) ([]models.Airport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, city, country, iata_code FROM airports ORDER BY city`)
	if err != nil {
		return nil, fmt.Errorf("failed to list airports: %w", err)
	}
	defer rows.Close()

	var airports []models.Airport
	for rows.Next() {
		var a models.Airport
		if err := rows.Scan(&a.ID, &a.Name, &a.City, &a.Country, &a.IATACode); err != nil {
			return nil, fmt.Errorf("failed to scan airport: %w", err)
		}
		airports = append(airports, a)
	}
	return airports, rows.Err()
}

func collectFlights(rows *sql.Rows) ([]models.Flight, error) {
	var flights []models.Flight
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flight: %w", err)
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}
