package main

import (
	"context"
	"time"

	"flightsim/internal/config"
	"flightsim/internal/database"
	"flightsim/internal/logger"
	"flightsim/internal/repository"
	"flightsim/internal/search"
)

// reindex rebuilds the Elasticsearch flight index from Postgres.
func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, "text")
	log := logger.Get()

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	client, err := search.NewElasticsearchClient(cfg.Elasticsearch)
	if err != nil {
		logger.Fatal("failed to connect to elasticsearch", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	flights, err := repository.NewFlightRepository(db).List(ctx)
	if err != nil {
		logger.Fatal("failed to load flights", "error", err)
	}

	indexed := 0
	for i := range flights {
		if err := client.IndexFlight(ctx, &flights[i]); err != nil {
			log.Error("failed to index flight", "flight_id", flights[i].ID, "error", err)
			continue
		}
		indexed++
	}

	log.Info("reindex complete", "flights", len(flights), "indexed", indexed)
}
