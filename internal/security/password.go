package security

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// SpecialChars is the fixed set a password must draw at least one character from.
const SpecialChars = "@$!%*?&"

const MinPasswordLength = 8

// MaxPasswordBytes is bcrypt's input limit. It counts bytes, not characters.
const MaxPasswordBytes = 72

var (
	ErrPasswordTooShort = errors.New("password is too short (minimum is 8 characters)")
	ErrPasswordTooLong  = errors.New("password is too long (maximum is 72 bytes)")
	ErrPasswordWeak     = errors.New("password must include at least one lowercase letter, one uppercase letter, one digit, and one special character")
)

// Hash password hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	if len(plain) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// helper that compares a bcrypt hash with a plaintext password.

func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

func ValidatePassword(plain string) error {
	if len([]rune(plain)) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	if len(plain) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}

	var lower, upper, digit, special bool

	for _, r := range plain {
		switch {
		// ASCII classes only
		case 'a' <= r && r <= 'z':
			lower = true
		case 'A' <= r && r <= 'Z':
			upper = true
		case '0' <= r && r <= '9':
			digit = true
		case strings.ContainsRune(SpecialChars, r):
			special = true
		}
	}

	if !lower || !upper || !digit || !special {
		return ErrPasswordWeak
	}

	return nil
}

// RegisterValidators installs the "password_bytes" and "password" tags on a
// validator instance, typically gin's binding engine.
func RegisterValidators(v *validator.Validate) error {
	err := v.RegisterValidation("password_bytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordBytes
	})
	if err != nil {
		return err
	}

	return v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return ValidatePassword(fl.Field().String()) == nil
	})
}
