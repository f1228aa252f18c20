package user

import "time"

// Role is an access role carried in tokens and checked at the edges.
type Role string

const (
	RoleDoctor  Role = "Doctor"
	RolePatient Role = "Patient"
)

// Valid reports whether the role is one the system knows.
func (r Role) Valid() bool {
	return r == RoleDoctor || r == RolePatient
}

// User is a registered account. Every account carries an RSA key pair
// so notes written for it can be stored encrypted.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Role         Role      `db:"role" json:"role"`
	PasswordHash string    `db:"password_hash" json:"-"`
	PublicKey    string    `db:"public_key" json:"-"`
	PrivateKey   string    `db:"private_key" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
