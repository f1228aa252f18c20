package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/carebridge/carebridge/internal/notecrypt"
	"github.com/carebridge/carebridge/internal/repository"
)

// Service implements registration, login, and token refresh.
type Service struct {
	store  UserStore
	tokens *TokenIssuer
	logger *slog.Logger
}

// NewService creates a new user service.
func NewService(store UserStore, tokens *TokenIssuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		tokens: tokens,
		logger: logger,
	}
}

// RegisterRequest carries a new account application.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// Register creates an account. Each account gets a fresh RSA key pair
// so notes addressed to it can be stored encrypted.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	privateKey, publicKey, err := notecrypt.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("generating key pair: %w", err)
	}

	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         req.Role,
		PasswordHash: string(hash),
		PublicKey:    publicKey,
		PrivateKey:   privateKey,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// LoginResult is the issued session payload.
type LoginResult struct {
	Role              []Role `json:"role"`
	Refresh           string `json:"refresh"`
	Access            string `json:"access"`
	AccessTokenExpiry string `json:"access_token_expiry"`
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.store.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	result, err := s.issueFor(u)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", "user_id", u.ID)
	return result, nil
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	u, err := s.store.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	return s.issueFor(u)
}

// Get returns an account by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	return u, nil
}

// PatientPublicKey returns the PEM public key of a patient account.
// Missing users and non-patient accounts both surface
// repository.ErrNotFound.
func (s *Service) PatientPublicKey(ctx context.Context, patientID string) (string, error) {
	u, err := s.patient(ctx, patientID)
	if err != nil {
		return "", err
	}
	return u.PublicKey, nil
}

// PatientPrivateKey returns the PEM private key of a patient account.
func (s *Service) PatientPrivateKey(ctx context.Context, patientID string) (string, error) {
	u, err := s.patient(ctx, patientID)
	if err != nil {
		return "", err
	}
	return u.PrivateKey, nil
}

func (s *Service) patient(ctx context.Context, patientID string) (*User, error) {
	u, err := s.store.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if u.Role != RolePatient {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (s *Service) issueFor(u *User) (*LoginResult, error) {
	pair, err := s.tokens.Issue(u)
	if err != nil {
		return nil, fmt.Errorf("issuing tokens: %w", err)
	}
	return &LoginResult{
		Role:              []Role{u.Role},
		Refresh:           pair.Refresh,
		Access:            pair.Access,
		AccessTokenExpiry: pair.AccessExpiry.Format(time.RFC3339),
	}, nil
}
