package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/gazemetrics/gazemetrics-api/internal/models"
	"github.com/gazemetrics/gazemetrics-api/internal/repository"
	"github.com/gazemetrics/gazemetrics-api/internal/utils"
)

// AuthService handles account registration and login. It is the "current
// user" identity provider for the rest of the API.
type AuthService struct {
	userRepo *repository.UserRepository
}

// NewAuthService creates a new auth service.
func NewAuthService(userRepo *repository.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, utils.ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Name:         name,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		log.Error().Err(err).Str("email", email).Msg("Failed to create user")
		return nil, err
	}

	log.Info().Str("email", email).Msg("User registered")
	return user, nil
}

// Login verifies credentials and issues a JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, utils.ErrInvalidCredentials
		}
		log.Error().Err(err).Str("email", email).Msg("Failed to get user by email")
		return "", nil, utils.ErrInvalidCredentials
	}

	if !user.IsActive {
		log.Warn().Str("email", email).Msg("Account is inactive")
		return "", nil, utils.ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, utils.ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return "", nil, err
	}

	log.Info().Str("email", email).Msg("Login successful")
	return token, user, nil
}

// GetUser loads a user by id.
func (s *AuthService) GetUser(ctx context.Context, id int) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}
