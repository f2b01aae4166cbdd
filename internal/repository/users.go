package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"flightsim/internal/database"
	apperrors "flightsim/internal/errors"
	"flightsim/internal/models"
)

// UserRepository manages API accounts.
type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new account.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, first_name, surname, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING user_id, is_active, registered_at`,
		user.Email, user.PasswordHash, user.FirstName, user.Surname, user.IsAdmin).
		Scan(&user.UserID, &user.IsActive, &user.RegisteredAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("user %s: %w", user.Email, apperrors.ErrEmailTaken)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetByEmail loads an account by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, email, password_hash, first_name, surname, is_admin, is_active, registered_at
		FROM users WHERE email = $1`, email).Scan(
		&u.UserID, &u.Email, &u.PasswordHash, &u.FirstName, &u.Surname,
		&u.IsAdmin, &u.IsActive, &u.RegisteredAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", email, err)
	}
	return &u, nil
}
