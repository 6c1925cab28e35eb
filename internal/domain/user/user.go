package user

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email has already been taken")
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeEmail is applied on every write and every lookup, which is what
// makes the unique index on users.email case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterFields struct {
	Email                string `json:"email" binding:"required,email,max=255"`
	Password             string `json:"password" binding:"required,min=8,password_bytes,password"`
	PasswordConfirmation string `json:"password_confirmation" binding:"omitempty,eqfield=Password"`
}

type RegisterRequest struct {
	User *RegisterFields `json:"user" binding:"required"`
}

// LoginRequest carries no binding rules: blank credentials fail like any
// other wrong pair.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileFields struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

type UpdateProfileRequest struct {
	User *ProfileFields `json:"user" binding:"required"`
}
