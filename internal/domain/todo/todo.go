package todo

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("todo not found")
	ErrBlankTitle = errors.New("title can't be blank")
)

type Todo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnerID lets the ownership check treat todos as owned records.
func (t Todo) OwnerID() string {
	return t.UserID
}

type CreateFields struct {
	Title     string `json:"title" binding:"required,max=255"`
	Completed bool   `json:"completed"`
}

type CreateRequest struct {
	Todo *CreateFields `json:"todo" binding:"required"`
}

// partial update: nil fields are left untouched.
type UpdateFields struct {
	Title     *string `json:"title" binding:"omitempty,max=255"`
	Completed *bool   `json:"completed"`
}

type UpdateRequest struct {
	Todo *UpdateFields `json:"todo" binding:"required"`
}

// Validate rejects whitespace-only titles, which the binding tags let through.
func (f CreateFields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return ErrBlankTitle
	}
	return nil
}

func (f UpdateFields) Validate() error {
	if f.Title != nil && strings.TrimSpace(*f.Title) == "" {
		return ErrBlankTitle
	}
	return nil
}
