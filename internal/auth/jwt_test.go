package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	m, err := NewManager("test-secret-key", 0, opts...)
	require.NoError(t, err)
	return m
}

func TestNewManager_RequiresSecret(t *testing.T) {
	_, err := NewManager("", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestNewManager_DefaultTTL(t *testing.T) {
	m := newTestManager(t)
	assert.Equal(t, 24*time.Hour, m.TTL())
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	m := newTestManager(t)

	for i := 0; i < 20; i++ {
		userID := uuid.NewString()

		token, err := m.Issue(userID)
		require.NoError(t, err)

		claims, err := m.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, userID, claims.Subject)
		assert.NotEmpty(t, claims.ID)
	}
}

func TestIssue_ExpiresAfterTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m := newTestManager(t, WithClock(func() time.Time { return now }))

	token, err := m.Issue("user-1")
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestVerify_TamperedSignature(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue(uuid.NewString())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := parts[2]

	// the final base64url character also carries padding bits that decoders
	// ignore, so only the fully significant positions are mutated.
	for i := 0; i < len(sig)-1; i++ {
		mutated := []byte(sig)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}

		tampered := parts[0] + "." + parts[1] + "." + string(mutated)

		_, err := m.Verify(tampered)
		require.Error(t, err, "position %d", i)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Equal(t, FailureBadSignature, FailureOf(err))
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer, err := NewManager("secret-one", 0)
	require.NoError(t, err)
	verifier, err := NewManager("secret-two", 0)
	require.NoError(t, err)

	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, ErrTokenSignature)
}

func TestVerify_PastExpiryRejected(t *testing.T) {
	m := newTestManager(t)

	token, err := m.IssueAt("user-1", time.Now().Add(-25*time.Hour))
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, FailureExpired, FailureOf(err))
}

func TestVerify_ExpiryMustBeStrictlyInFuture(t *testing.T) {
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := issued
	m := newTestManager(t, WithClock(func() time.Time { return now }))

	token, err := m.Issue("user-1")
	require.NoError(t, err)

	now = issued.Add(24*time.Hour - time.Second)
	_, err = m.Verify(token)
	assert.NoError(t, err)

	now = issued.Add(24 * time.Hour)
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_Malformed(t *testing.T) {
	m := newTestManager(t)

	for _, raw := range []string{"", "invalid.token.format", "abc", "a.b"} {
		_, err := m.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
		assert.Equal(t, FailureMalformedToken, FailureOf(err), raw)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	m := newTestManager(t)

	claims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret-key"))
	require.NoError(t, err)
	_, err = m.Verify(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Verify(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RequiresExpiryAndUser(t *testing.T) {
	m := newTestManager(t)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "user-1"}).SignedString([]byte("test-secret-key"))
	require.NoError(t, err)
	_, err = m.Verify(noExp)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("test-secret-key"))
	require.NoError(t, err)
	_, err = m.Verify(noUser)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
