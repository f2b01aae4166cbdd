package service

import (
	"context"
	"crypto/sha256"
	"fmt"

	"flightsim/internal/logger"
	"flightsim/internal/models"
)

// UserService manages API accounts.
type UserService struct {
	users  UserStore
	emails EmailStore
}

func NewUserService(users UserStore, emails EmailStore) *UserService {
	return &UserService{users: users, emails: emails}
}

// Register creates a new account. Passwords are stored as SHA-256
// hashes, matching what BasicAuth compares against.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	hash := sha256.Sum256([]byte(req.Password))

	user, err := s.users.Create(ctx, &models.User{
		Email:        req.Email,
		PasswordHash: fmt.Sprintf("%x", hash),
		FirstName:    req.FirstName,
		Surname:      req.Surname,
	})
	if err != nil {
		return nil, err
	}

	if err := s.emails.Enqueue(ctx, user.Email,
		"Welcome aboard",
		fmt.Sprintf("Dear %s,\n\nYour account has been created. You can now search flights and book seats.\n\nHappy travels.", user.FirstName)); err != nil {
		logger.Get().Warn("failed to enqueue welcome email", "email", user.Email, "error", err)
	}

	return &models.RegisterResponse{
		Status: "success",
		UserID: user.UserID,
		Email:  user.Email,
	}, nil
}
