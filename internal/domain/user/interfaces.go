package user

import "context"

// UserStore provides persistence for accounts.
type UserStore interface {
	// Insert persists a new account. Returns repository.ErrDuplicate
	// when the email is already registered.
	Insert(ctx context.Context, u *User) error

	// GetByEmail returns the account registered under an email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID returns an account by id.
	GetByID(ctx context.Context, id string) (*User, error)
}
