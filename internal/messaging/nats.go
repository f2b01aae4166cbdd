package messaging

import (
	"encoding/json"
	"fmt"

	stan "github.com/nats-io/stan.go"

	"flightsim/internal/logger"
)

// Config holds NATS Streaming connection settings.
type Config struct {
	Enabled   bool
	URL       string
	ClusterID string
	ClientID  string
}

// Publisher emits domain events. Publishing is best-effort: failures
// are logged by callers and never abort the originating operation.
type Publisher interface {
	Publish(subject string, event any) error
	Close() error
}

// NATSPublisher publishes JSON-encoded events to NATS Streaming.
type NATSPublisher struct {
	conn stan.Conn
}

// NewNATSPublisher connects to the streaming cluster.
func NewNATSPublisher(cfg Config) (*NATSPublisher, error) {
	conn, err := stan.Connect(cfg.ClusterID, cfg.ClientID, stan.NatsURL(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}

	logger.Get().Info("connected to NATS streaming",
		"url", cfg.URL,
		"cluster_id", cfg.ClusterID,
		"client_id", cfg.ClientID,
	)

	return &NATSPublisher{conn: conn}, nil
}

// Publish sends one event on the given subject.
func (p *NATSPublisher) Publish(subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event for %s: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Close shuts down the streaming connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Close()
}

// NoopPublisher is used when NATS is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(subject string, event any) error { return nil }
func (NoopPublisher) Close() error                            { return nil }
