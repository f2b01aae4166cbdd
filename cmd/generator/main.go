package main

import (
	"crypto/sha256"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"flightsim/internal/config"
	"flightsim/internal/database"
	"flightsim/internal/logger"
)

var airlines = []struct {
	name string
	code string
}{
	{"FlightSim Air", "FS"},
	{"Baltic Wings", "BW"},
	{"Nordic Connect", "NC"},
	{"Aurora Express", "AE"},
	{"Meridian Airways", "MA"},
}

var airports = []struct {
	name    string
	city    string
	country string
	iata    string
}{
	{"Riga International", "Riga", "Latvia", "RIX"},
	{"Oslo Gardermoen", "Oslo", "Norway", "OSL"},
	{"Berlin Brandenburg", "Berlin", "Germany", "BER"},
	{"Vienna International", "Vienna", "Austria", "VIE"},
	{"Warsaw Chopin", "Warsaw", "Poland", "WAW"},
	{"Helsinki Vantaa", "Helsinki", "Finland", "HEL"},
	{"Amsterdam Schiphol", "Amsterdam", "Netherlands", "AMS"},
	{"Lisbon Humberto Delgado", "Lisbon", "Portugal", "LIS"},
}

// Cabin sizes available to the generator, all multiples of a six-seat
// row.
var cabinSizes = []int{60, 120, 180}

func main() {
	flightCount := flag.Int("flights", 50, "number of flights to generate")
	days := flag.Int("days", 60, "departure window in days from now")
	seed := flag.Int64("seed", 0, "random seed (0 for time-based)")
	adminEmail := flag.String("admin-email", "admin@flightsim.local", "admin account email")
	adminPassword := flag.String("admin-password", "", "admin account password (empty skips account creation)")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, "text")
	log := logger.Get()

	if *seed != 0 {
		rand.Seed(*seed)
	} else {
		rand.Seed(time.Now().UnixNano())
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("failed to run migrations", "error", err)
	}

	airlineIDs, err := seedAirlines(db)
	if err != nil {
		logger.Fatal("failed to seed airlines", "error", err)
	}
	airportIDs, err := seedAirports(db)
	if err != nil {
		logger.Fatal("failed to seed airports", "error", err)
	}
	log.Info("catalog seeded", "airlines", len(airlineIDs), "airports", len(airportIDs))

	created, err := seedFlights(db, airlineIDs, airportIDs, *flightCount, *days)
	if err != nil {
		logger.Fatal("failed to seed flights", "error", err)
	}
	log.Info("flights seeded", "count", created)

	if *adminPassword != "" {
		if err := seedAdmin(db, *adminEmail, *adminPassword); err != nil {
			logger.Fatal("failed to seed admin account", "error", err)
		}
		log.Info("admin account ready", "email", *adminEmail)
	}
}

func seedAirlines(db *database.DB) (map[string]int64, error) {
	ids := make(map[string]int64)
	for _, a := range airlines {
		var id int64
		err := db.QueryRow(`
			INSERT INTO airlines (name, code) VALUES ($1, $2)
			ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, a.name, a.code).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("airline %s: %w", a.code, err)
		}
		ids[a.code] = id
	}
	return ids, nil
}

func seedAirports(db *database.DB) (map[string]int64, error) {
	ids := make(map[string]int64)
	for _, a := range airports {
		var id int64
		err := db.QueryRow(`
			INSERT INTO airports (name, city, country, iata_code) VALUES ($1, $2, $3, $4)
			ON CONFLICT (iata_code) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, a.name, a.city, a.country, a.iata).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("airport %s: %w", a.iata, err)
		}
		ids[a.iata] = id
	}
	return ids, nil
}

func seedFlights(db *database.DB, airlineIDs, airportIDs map[string]int64, count, days int) (int, error) {
	codes := make([]string, 0, len(airlineIDs))
	for code := range airlineIDs {
		codes = append(codes, code)
	}
	iatas := make([]string, 0, len(airportIDs))
	for iata := range airportIDs {
		iatas = append(iatas, iata)
	}

	created := 0
	for i := 0; i < count; i++ {
		code := codes[rand.Intn(len(codes))]
		flightNumber := fmt.Sprintf("%s%03d", code, 100+i)

		origin := iatas[rand.Intn(len(iatas))]
		destination := iatas[rand.Intn(len(iatas))]
		for destination == origin {
			destination = iatas[rand.Intn(len(iatas))]
		}

		departure := time.Now().
			Add(time.Duration(1+rand.Intn(days*24)) * time.Hour).
			Truncate(time.Minute)
		durationMins := 60 + rand.Intn(240)
		arrival := departure.Add(time.Duration(durationMins) * time.Minute)

		basePrice := float64(80 + rand.Intn(520))
		seats := cabinSizes[rand.Intn(len(cabinSizes))]

		_, err := db.Exec(`
			INSERT INTO flights (flight_number, airline_id, origin_id, destination_id,
			                     departure, arrival, base_price, total_seats, available_seats, duration_mins)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, $9)
			ON CONFLICT (flight_number) DO NOTHING`,
			flightNumber, airlineIDs[code], airportIDs[origin], airportIDs[destination],
			departure, arrival, basePrice, seats, durationMins)
		if err != nil {
			return created, fmt.Errorf("flight %s: %w", flightNumber, err)
		}
		created++
	}
	return created, nil
}

func seedAdmin(db *database.DB, email, password string) error {
	hash := sha256.Sum256([]byte(password))
	_, err := db.Exec(`
		INSERT INTO users (email, password_hash, first_name, surname, is_admin)
		VALUES ($1, $2, 'Admin', 'User', TRUE)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, is_admin = TRUE`,
		email, fmt.Sprintf("%x", hash))
	return err
}
