package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"flightsim/internal/logger"
	"flightsim/internal/metrics"
	"flightsim/internal/service"
)

// Config holds SMTP settings. An empty Host switches the mailer into
// log-only mode, where messages are marked sent without a delivery.
type Config struct {
	Host         string
	Port         int
	User         string
	Password     string
	From         string
	PollInterval time.Duration
	MaxAttempts  int
}

// SendFunc delivers one message. Swappable in tests.
type SendFunc func(to, subject, body string) error

// Mailer drains the email queue on a fixed interval. Delivery is
// best-effort with bounded retries; a message that keeps failing is
// parked as failed and never blocks the queue.
type Mailer struct {
	cfg   Config
	store service.EmailStore
	send  SendFunc
}

// New builds a mailer over the given queue.
func New(cfg Config, store service.EmailStore) *Mailer {
	m := &Mailer{cfg: cfg, store: store}
	m.send = m.smtpSend
	return m
}

// NewWithSender builds a mailer with a custom delivery function.
func NewWithSender(cfg Config, store service.EmailStore, send SendFunc) *Mailer {
	return &Mailer{cfg: cfg, store: store, send: send}
}

// Run polls the queue until the context is cancelled.
func (m *Mailer) Run(ctx context.Context) {
	log := logger.Get()
	log.Info("email poller started",
		"interval", m.cfg.PollInterval,
		"max_attempts", m.cfg.MaxAttempts,
		"log_only", m.cfg.Host == "",
	)

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("email poller stopped")
			return
		case <-ticker.C:
			m.ProcessPending(ctx)
		}
	}
}

// ProcessPending delivers one batch of pending messages.
func (m *Mailer) ProcessPending(ctx context.Context) {
	log := logger.Get()

	pending, err := m.store.ListPending(ctx, 20)
	if err != nil {
		log.Error("failed to list pending emails", "error", err)
		return
	}

	for _, email := range pending {
		if err := m.send(email.ToEmail, email.Subject, email.Body); err != nil {
			log.Warn("email delivery failed",
				"email_id", email.ID,
				"to", email.ToEmail,
				"attempts", email.Attempts+1,
				"error", err,
			)
			if markErr := m.store.MarkFailed(ctx, email.ID, email.Attempts, m.cfg.MaxAttempts, err.Error()); markErr != nil {
				log.Error("failed to record email failure", "email_id", email.ID, "error", markErr)
			}
			continue
		}

		if err := m.store.MarkSent(ctx, email.ID); err != nil {
			log.Error("failed to mark email sent", "email_id", email.ID, "error", err)
			continue
		}
		metrics.EmailsSent.Inc()
		log.Debug("email delivered", "email_id", email.ID, "to", email.ToEmail)
	}
}

func (m *Mailer) smtpSend(to, subject, body string) error {
	if m.cfg.Host == "" {
		logger.Get().Info("email (log only)", "to", to, "subject", subject)
		return nil
	}

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.cfg.From, to, subject, body))

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", to, err)
	}
	return nil
}
