package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carebridge/carebridge/internal/domain/user"
	"github.com/carebridge/carebridge/internal/repository"
)

// UserRepository implements user.UserStore for SQLite
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Insert persists a new account
func (r *UserRepository) Insert(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (
			id, email, first_name, last_name, role,
			password_hash, public_key, private_key, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		u.ID,
		u.Email,
		u.FirstName,
		u.LastName,
		u.Role,
		u.PasswordHash,
		u.PublicKey,
		u.PrivateKey,
		u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByEmail retrieves an account by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `
		SELECT
			id, email, first_name, last_name, role,
			password_hash, public_key, private_key, created_at
		FROM users
		WHERE email = ?
	`

	var u user.User
	if err := r.db.GetContext(ctx, &u, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &u, nil
}

// GetByID retrieves an account by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	query := `
		SELECT
			id, email, first_name, last_name, role,
			password_hash, public_key, private_key, created_at
		FROM users
		WHERE id = ?
	`

	var u user.User
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}
