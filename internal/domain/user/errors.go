package user

import "errors"

var (
	// ErrUserNotFound indicates the account does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken indicates a token that is malformed, expired,
	// signed with a different secret, or of the wrong type.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrInvalidInput indicates invalid registration or login input.
	ErrInvalidInput = errors.New("invalid user input")
)
