package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/gazemetrics/gazemetrics-api/internal/models"
)

// UserRepository handles user account database operations.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and fills in the generated id.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, name, is_active, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt)
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := `
		SELECT id, email, password_hash, name, is_active, created_at
		FROM users
		WHERE email = $1`

	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	query := `
		SELECT id, email, password_hash, name, is_active, created_at
		FROM users
		WHERE id = $1`

	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}
