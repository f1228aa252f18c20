package note

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/carebridge/internal/domain/user"
	"github.com/carebridge/carebridge/internal/notecrypt"
	"github.com/carebridge/carebridge/internal/repository"
)

// Service stores notes encrypted and feeds each new note into the
// extraction pipeline.
type Service struct {
	store     NoteStore
	keys      KeySource
	publisher Publisher
	queue     string
	logger    *slog.Logger
}

// NewService creates a new note service publishing to the given queue.
func NewService(store NoteStore, keys KeySource, publisher Publisher, queue string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		keys:      keys,
		publisher: publisher,
		queue:     queue,
		logger:    logger,
	}
}

// Requester identifies the caller of a read operation.
type Requester struct {
	UserID string
	Role   user.Role
}

// Create encrypts and stores a note for a patient, then enqueues the
// plaintext for step extraction. The returned note echoes the
// plaintext back rather than the stored ciphertext.
func (s *Service) Create(ctx context.Context, doctorID, patientID, content string) (*Note, error) {
	if doctorID == "" || patientID == "" {
		return nil, fmt.Errorf("%w: doctor and patient ids are required", ErrInvalidInput)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	publicKey, err := s.keys.PatientPublicKey(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("loading patient key: %w", err)
	}
	sealed, err := notecrypt.Encrypt(publicKey, content)
	if err != nil {
		return nil, fmt.Errorf("encrypting note: %w", err)
	}

	now := time.Now().UTC()
	n := &Note{
		ID:        uuid.NewString(),
		DoctorID:  doctorID,
		PatientID: patientID,
		Content:   sealed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Insert(ctx, n); err != nil {
		return nil, fmt.Errorf("storing note: %w", err)
	}

	body, err := json.Marshal(QueueMessage{
		NoteContent: content,
		NoteID:      n.ID,
		PatientID:   patientID,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding queue message: %w", err)
	}
	if err := s.publisher.Publish(ctx, s.queue, body); err != nil {
		return nil, fmt.Errorf("note %s stored but enqueue failed: %w", n.ID, err)
	}

	s.logger.Info("note enqueued for extraction", "note_id", n.ID, "patient_id", patientID)

	n.Content = content
	return n, nil
}

// Get returns a note with decrypted content. Only the authoring doctor
// or the note's patient may read it.
func (s *Service) Get(ctx context.Context, noteID string, req Requester) (*Note, error) {
	n, err := s.store.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("loading note: %w", err)
	}

	switch req.Role {
	case user.RoleDoctor:
		if n.DoctorID != req.UserID {
			return nil, ErrAccessDenied
		}
	case user.RolePatient:
		if n.PatientID != req.UserID {
			return nil, ErrAccessDenied
		}
	default:
		return nil, ErrAccessDenied
	}

	privateKey, err := s.keys.PatientPrivateKey(ctx, n.PatientID)
	if err != nil {
		return nil, fmt.Errorf("loading patient key: %w", err)
	}
	plain, err := notecrypt.Decrypt(privateKey, n.Content)
	if err != nil {
		return nil, fmt.Errorf("decrypting note %s: %w", noteID, err)
	}

	n.Content = plain
	return n, nil
}
