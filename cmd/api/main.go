package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flightsim/internal/api"
	"flightsim/internal/cache"
	"flightsim/internal/config"
	"flightsim/internal/database"
	"flightsim/internal/handlers"
	"flightsim/internal/logger"
	"flightsim/internal/mailer"
	"flightsim/internal/messaging"
	"flightsim/internal/payment"
	"flightsim/internal/repository"
	"flightsim/internal/search"
	"flightsim/internal/service"
	"flightsim/internal/simulation"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("failed to run migrations", "error", err)
	}

	repos := repository.New(db)

	var redisCache *cache.Cache
	if cfg.Redis.Enabled {
		redisCache, err = cache.New(cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, continuing without cache", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
		}
	}

	var publisher messaging.Publisher = messaging.NoopPublisher{}
	if cfg.NATS.Enabled {
		natsPub, err := messaging.NewNATSPublisher(cfg.NATS)
		if err != nil {
			log.Warn("nats unavailable, events disabled", "error", err)
		} else {
			publisher = natsPub
			defer natsPub.Close()
		}
	}

	var searchClient *search.ElasticsearchClient
	if cfg.SearchEnabled {
		searchClient, err = search.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			log.Warn("elasticsearch unavailable, full-text search disabled", "error", err)
			searchClient = nil
		}
	}

	stores := service.Stores{
		Flights:     repos.Flights,
		Demand:      repos.Demand,
		Holds:       repos.Holds,
		Bookings:    repos.Bookings,
		FareHistory: repos.FareHistory,
		Users:       repos.Users,
		Emails:      repos.Emails,
	}
	services := service.New(stores, service.Deps{
		Gateway:    payment.NewSimulator(cfg.Payment, 0),
		Publisher:  publisher,
		PriceCache: redisCache,
		HoldTTL:    cfg.HoldTTL,
	})

	h := handlers.New(services, repos.Emails, searchClient)
	server := api.NewServer(cfg, h, repos.Users, redisCache, db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Simulation.Enabled {
		worker := simulation.NewWorker(repos.Flights, repos.Demand, services.Flights, redisCache, cfg.Simulation, 0)
		go worker.Run(ctx)
	}

	emailPoller := mailer.New(cfg.SMTP, repos.Emails)
	go emailPoller.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatal("http server failed", "error", err)
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	log.Info("server stopped")
}
