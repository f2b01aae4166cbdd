package repository

import (
	"context"
	"database/sql"
	"fmt"

	"flightsim/internal/database"
	apperrors "flightsim/internal/errors"
	"flightsim/internal/models"
)

// EmailRepository is the outbound email queue.
type EmailRepository struct {
	db *database.DB
}

func NewEmailRepository(db *database.DB) *EmailRepository {
	return &EmailRepository{db: db}
}

// Enqueue adds a pending message to the queue.
func (r *EmailRepository) Enqueue(ctx context.Context, toEmail, subject, body string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_queue (to_email, subject, body, status)
		VALUES ($1, $2, $3, $4)`,
		toEmail, subject, body, models.EmailPending)
	if err != nil {
		return fmt.Errorf("failed to enqueue email to %s: %w", toEmail, err)
	}
	return nil
}

// ListPending returns the oldest pending messages.
func (r *EmailRepository) ListPending(ctx context.Context, limit int) ([]models.QueuedEmail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, to_email, subject, body, created_at, sent_at, status, attempts, last_error
		FROM email_queue
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2`, models.EmailPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending emails: %w", err)
	}
	defer rows.Close()
	return collectEmails(rows)
}

// MarkSent flags a message as delivered.
func (r *EmailRepository) MarkSent(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_queue SET status = $1, sent_at = NOW(), attempts = attempts + 1
		WHERE id = $2`, models.EmailSent, id)
	if err != nil {
		return fmt.Errorf("failed to mark email %d sent: %w", id, err)
	}
	return nil
}

// MarkFailed records a delivery failure. The message stays pending
// until attempts reaches maxAttempts, then it is parked as failed.
func (r *EmailRepository) MarkFailed(ctx context.Context, id int64, attempts, maxAttempts int, sendErr string) error {
	status := models.EmailPending
	if attempts+1 >= maxAttempts {
		status = models.EmailFailed
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_queue SET status = $1, attempts = attempts + 1, last_error = $2
		WHERE id = $3`, status, sendErr, id)
	if err != nil {
		return fmt.Errorf("failed to mark email %d failed: %w", id, err)
	}
	return nil
}

// Retry puts a failed message back on the queue with a fresh attempt
// budget.
func (r *EmailRepository) Retry(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE email_queue SET status = $1, attempts = 0, last_error = NULL
		WHERE id = $2 AND status = $3`,
		models.EmailPending, id, models.EmailFailed)
	if err != nil {
		return fmt.Errorf("failed to retry email %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrEmailNotFound
	}
	return nil
}

// ListRecent returns the newest queue entries for the admin view.
func (r *EmailRepository) ListRecent(ctx context.Context, limit int) ([]models.QueuedEmail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, to_email, subject, body, created_at, sent_at, status, attempts, last_error
		FROM email_queue
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent emails: %w", err)
	}
	defer rows.Close()
	return collectEmails(rows)
}

func collectEmails(rows *sql.Rows) ([]models.QueuedEmail, error) {
	var emails []models.QueuedEmail
	for rows.Next() {
		var e models.QueuedEmail
		if err := rows.Scan(&e.ID, &e.ToEmail, &e.Subject, &e.Body, &e.CreatedAt,
			&e.SentAt, &e.Status, &e.Attempts, &e.LastError); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}
