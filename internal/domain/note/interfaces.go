package note

import "context"

// NoteStore provides persistence for notes.
type NoteStore interface {
	Insert(ctx context.Context, n *Note) error
	GetByID(ctx context.Context, id string) (*Note, error)
}

// Publisher enqueues work for asynchronous processing.
type Publisher interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

// KeySource provides the RSA key material of patient accounts.
// Missing users and non-patient accounts both surface
// repository.ErrNotFound.
type KeySource interface {
	PatientPublicKey(ctx context.Context, patientID string) (string, error)
	PatientPrivateKey(ctx context.Context, patientID string) (string, error)
}
