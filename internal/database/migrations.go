package database

import (
	"fmt"

	"flightsim/internal/logger"
)

const createAirlinesTable = `
CREATE TABLE IF NOT EXISTS airlines (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(128) NOT NULL,
    code VARCHAR(3) NOT NULL UNIQUE
);`

const createAirportsTable = `
CREATE TABLE IF NOT EXISTS airports (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(128) NOT NULL,
    city VARCHAR(64) NOT NULL,
    country VARCHAR(64) NOT NULL,
    iata_code VARCHAR(3) NOT NULL UNIQUE
);`

const createFlightsTable = `
CREATE TABLE IF NOT EXISTS flights (
    id BIGSERIAL PRIMARY KEY,
    flight_number VARCHAR(8) NOT NULL UNIQUE,
    airline_id BIGINT NOT NULL REFERENCES airlines(id),
    origin_id BIGINT NOT NULL REFERENCES airports(id),
    destination_id BIGINT NOT NULL REFERENCES airports(id),
    departure TIMESTAMP WITH TIME ZONE NOT NULL,
    arrival TIMESTAMP WITH TIME ZONE NOT NULL,
    base_price DECIMAL(10,2) NOT NULL CHECK (base_price > 0),
    total_seats INTEGER NOT NULL CHECK (total_seats > 0),
    available_seats INTEGER NOT NULL CHECK (available_seats >= 0),
    duration_mins INTEGER NOT NULL DEFAULT 0,
    CHECK (available_seats <= total_seats)
);`

const createDemandLevelsTable = `
CREATE TABLE IF NOT EXISTS demand_levels (
    flight_id BIGINT PRIMARY KEY REFERENCES flights(id) ON DELETE CASCADE,
    demand_level DECIMAL(6,3) NOT NULL DEFAULT 1.0,
    last_updated TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);`

const createSeatHoldsTable = `
CREATE TABLE IF NOT EXISTS seat_holds (
    id BIGSERIAL PRIMARY KEY,
    flight_id BIGINT NOT NULL REFERENCES flights(id) ON DELETE CASCADE,
    seat_number VARCHAR(4) NOT NULL,
    token VARCHAR(64) NOT NULL UNIQUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMP WITH TIME ZONE NOT NULL
);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id BIGSERIAL PRIMARY KEY,
    pnr VARCHAR(9) NOT NULL UNIQUE,
    flight_id BIGINT NOT NULL REFERENCES flights(id),
    seat_number VARCHAR(4) NOT NULL,
    passenger_name VARCHAR(128) NOT NULL,
    passenger_email VARCHAR(128) NOT NULL,
    status VARCHAR(16) NOT NULL DEFAULT 'confirmed',
    booked_price DECIMAL(10,2) NOT NULL,
    payment_status VARCHAR(16) NOT NULL DEFAULT 'paid',
    booking_date TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);`

const createFareHistoryTable = `
CREATE TABLE IF NOT EXISTS fare_history (
    id BIGSERIAL PRIMARY KEY,
    flight_id BIGINT NOT NULL REFERENCES flights(id) ON DELETE CASCADE,
    timestamp TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    old_price DECIMAL(10,2) NOT NULL,
    new_price DECIMAL(10,2) NOT NULL,
    demand_level DECIMAL(6,3) NOT NULL,
    available_seats INTEGER NOT NULL
);`

const createEmailQueueTable = `
CREATE TABLE IF NOT EXISTS email_queue (
    id BIGSERIAL PRIMARY KEY,
    to_email VARCHAR(128) NOT NULL,
    subject VARCHAR(256) NOT NULL,
    body TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    sent_at TIMESTAMP WITH TIME ZONE,
    status VARCHAR(16) NOT NULL DEFAULT 'pending',
    attempts INTEGER NOT NULL DEFAULT 0,
    last_error TEXT
);`

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    user_id BIGSERIAL PRIMARY KEY,
    email VARCHAR(128) NOT NULL UNIQUE,
    password_hash VARCHAR(64) NOT NULL,
    first_name VARCHAR(64) NOT NULL,
    surname VARCHAR(64) NOT NULL,
    is_admin BOOLEAN NOT NULL DEFAULT FALSE,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    registered_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_flights_departure ON flights(departure);
CREATE INDEX IF NOT EXISTS idx_flights_route ON flights(origin_id, destination_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_seat_holds_flight_seat ON seat_holds(flight_id, seat_number);
CREATE INDEX IF NOT EXISTS idx_seat_holds_expires ON seat_holds(expires_at);
CREATE INDEX IF NOT EXISTS idx_bookings_flight ON bookings(flight_id);
CREATE INDEX IF NOT EXISTS idx_bookings_email ON bookings(passenger_email);
CREATE INDEX IF NOT EXISTS idx_fare_history_flight ON fare_history(flight_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_email_queue_status ON email_queue(status, created_at);`

// RunMigrations creates the schema if it does not exist yet.
func (db *DB) RunMigrations() error {
	migrations := []struct {
		name string
		sql  string
	}{
		{"airlines", createAirlinesTable},
		{"airports", createAirportsTable},
		{"flights", createFlightsTable},
		{"demand_levels", createDemandLevelsTable},
		{"seat_holds", createSeatHoldsTable},
		{"bookings", createBookingsTable},
		{"fare_history", createFareHistoryTable},
		{"email_queue", createEmailQueueTable},
		{"users", createUsersTable},
		{"indexes", createIndexes},
	}

	for _, m := range migrations {
		if _, err := db.Exec(m.sql); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}
		logger.Get().Debug("migration applied", "migration", m.name)
	}

	logger.Get().Info("database migrations completed", "count", len(migrations))
	return nil
}
