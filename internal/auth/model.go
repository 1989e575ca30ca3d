package auth

import (
	"errors"
	"time"

	"github.com/gofrs/uuid"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is what sign-up and sign-in hand back to the client.
type Session struct {
	User      *User
	Token     string
	ExpiresAt time.Time
}
