package db

import (
	"context"
	"errors"

	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/security"
)

type SeedStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, email, passwordHash string) (user.User, error)
}

// EnsureSeedUser creates a starting account when SEED_EMAIL and
// SEED_PASSWORD are both set. An existing account is left untouched.
func EnsureSeedUser(ctx context.Context, users SeedStore, email, password string) (created bool, err error) {
	if email == "" || password == "" {
		return false, nil
	}

	email = user.NormalizeEmail(email)

	// check if the user exists
	_, err = users.GetByEmail(ctx, email)

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	if err := security.ValidatePassword(password); err != nil {
		return false, err
	}

	hash, err := security.HashPassword(password)

	if err != nil {
		return false, err
	}

	_, err = users.Create(ctx, email, hash)
	if errors.Is(err, user.ErrEmailTaken) {
		// another instance won the race
		return false, nil
	}

	return err == nil, err
}
