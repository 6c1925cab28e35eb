package security

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "valid", password: "Password123!", wantErr: nil},
		{name: "too_short", password: "Pa1!", wantErr: ErrPasswordTooShort},
		{name: "no_uppercase", password: "password123!", wantErr: ErrPasswordWeak},
		{name: "no_lowercase", password: "PASSWORD123!", wantErr: ErrPasswordWeak},
		{name: "no_digit", password: "Password!!", wantErr: ErrPasswordWeak},
		{name: "no_special", password: "Password123", wantErr: ErrPasswordWeak},
		{name: "special_outside_set", password: "Password123#", wantErr: ErrPasswordWeak},
		{name: "non_ascii_letters", password: "Éé1!éééé", wantErr: ErrPasswordWeak},
		{name: "non_ascii_digit", password: "Password١!", wantErr: ErrPasswordWeak},
		{name: "non_ascii_extra_ok", password: "Passwörd1!", wantErr: nil},
		{name: "72_bytes", password: "Aa1!" + strings.Repeat("x", 68), wantErr: nil},
		{name: "over_72_bytes", password: "Aa1!" + strings.Repeat("é", 40), wantErr: ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHashPassword_NeverStoresPlaintext(t *testing.T) {
	hash, err := HashPassword("TestPassword123!")
	require.NoError(t, err)

	assert.NotEqual(t, "TestPassword123!", hash)
	assert.Contains(t, []string{"$2a$", "$2b$", "$2y$"}, hash[:4])
	assert.NoError(t, CheckPassword(hash, "TestPassword123!"))
	assert.Error(t, CheckPassword(hash, "wrong"))

	_, err = HashPassword("Aa1!" + strings.Repeat("é", 40))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestRegisterValidators_PasswordTag(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterValidators(v))

	type req struct {
		Password string `validate:"password"`
	}

	assert.NoError(t, v.Struct(req{Password: "Password123!"}))
	assert.Error(t, v.Struct(req{Password: "password"}))

	type bytesReq struct {
		Password string `validate:"password_bytes"`
	}

	// 44 characters, 84 bytes
	assert.Error(t, v.Struct(bytesReq{Password: "Aa1!" + strings.Repeat("é", 40)}))
	assert.NoError(t, v.Struct(bytesReq{Password: strings.Repeat("x", 72)}))
}
