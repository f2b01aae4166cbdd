package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"flightsim/internal/logger"
	"flightsim/internal/models"
)

// Config holds Redis settings. When disabled, the service falls back to
// computing everything on demand.
type Config struct {
	Enabled  bool
	Addr     string
	Password string
	PriceTTL time.Duration
}

// Cache provides short-lived price snapshots and an auth verdict cache
// on Redis. All methods degrade to a miss on Redis errors.
type Cache struct {
	client   *redis.Client
	priceTTL time.Duration
}

// New connects to Redis and verifies the connection.
func New(cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	logger.Get().Info("connected to redis", "addr", cfg.Addr, "price_ttl", cfg.PriceTTL)

	return &Cache{client: client, priceTTL: cfg.PriceTTL}, nil
}

func priceKey(flightID int64) string {
	return fmt.Sprintf("price:flight:%d", flightID)
}

func authKey(email string) string {
	return fmt.Sprintf("auth:%s", email)
}

// GetPrice returns a cached price snapshot, or false on a miss.
func (c *Cache) GetPrice(ctx context.Context, flightID int64) (*models.FlightPriceResponse, bool) {
	data, err := c.client.Get(ctx, priceKey(flightID)).Bytes()
	if err != nil {
		return nil, false
	}
	var resp models.FlightPriceResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

// SetPrice stores a price snapshot with the configured TTL.
func (c *Cache) SetPrice(ctx context.Context, resp *models.FlightPriceResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, priceKey(resp.FlightID), data, c.priceTTL).Err(); err != nil {
		logger.Get().Warn("failed to cache price", "flight_id", resp.FlightID, "error", err)
	}
}

// InvalidatePrice drops the snapshot after inventory or demand changes.
func (c *Cache) InvalidatePrice(ctx context.Context, flightID int64) {
	if err := c.client.Del(ctx, priceKey(flightID)).Err(); err != nil {
		logger.Get().Warn("failed to invalidate price cache", "flight_id", flightID, "error", err)
	}
}

// GetAuthHash returns the cached password hash for an account.
func (c *Cache) GetAuthHash(ctx context.Context, email string) (string, bool) {
	hash, err := c.client.Get(ctx, authKey(email)).Result()
	if err != nil {
		return "", false
	}
	return hash, true
}

// SetAuthHash caches a verified password hash for five minutes.
func (c *Cache) SetAuthHash(ctx context.Context, email, hash string) {
	if err := c.client.Set(ctx, authKey(email), hash, 5*time.Minute).Err(); err != nil {
		logger.Get().Warn("failed to cache auth entry", "error", err)
	}
}

// Close shuts down the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
