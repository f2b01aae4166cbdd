package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"flightsim/internal/logger"
)

// Config holds database connection settings.
type Config struct {
	Host               string
	Port               int
	User               string
	Password           string
	DBName             string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	ConnMaxIdleTimeMin int
}

// DB wraps the sql connection pool.
type DB struct {
	*sql.DB
}

// NewConnection opens a Postgres connection pool and verifies it with a
// ping.
func NewConnection(cfg Config) (*DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMin) * time.Minute)
	db.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMin) * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Get().Info("database connection established",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.DBName,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return &DB{db}, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	logger.Get().Info("closing database connection")
	return db.DB.Close()
}
