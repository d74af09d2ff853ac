package user

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is a calendar account. PasswordHash is a bcrypt hash, never the
// plaintext password.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
}
