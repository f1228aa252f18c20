package user

import (
	"fmt"
	"strings"
)

const minPasswordLen = 8

func validateRegistration(req RegisterRequest) error {
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(req.Password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
	}
	if !req.Role.Valid() {
		return fmt.Errorf("%w: role must be %s or %s", ErrInvalidInput, RoleDoctor, RolePatient)
	}
	return nil
}
