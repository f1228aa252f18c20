package note

import "time"

// Note is a care note written by a doctor for a patient. Content is
// stored encrypted with the patient's public key; service reads return
// it decrypted.
type Note struct {
	ID        string    `bson:"_id" json:"id"`
	DoctorID  string    `bson:"doctor_id" json:"doctor_id"`
	PatientID string    `bson:"patient_id" json:"patient_id"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// QueueMessage is the work item published for each new note. The
// content travels in plaintext so the extraction worker never needs
// key material.
type QueueMessage struct {
	NoteContent string `json:"note_content"`
	NoteID      string `json:"note_id"`
	PatientID   string `json:"patient_id"`
}
