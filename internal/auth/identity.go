package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/geocoder89/todohub/internal/domain/user"
)

const bearerPrefix = "Bearer "

// Failure is the internal reason an identity could not be resolved.
// Callers outside this package should only ever branch on Resolution.OK.
type Failure int

const (
	FailureNone Failure = iota
	FailureMissingToken
	FailureMalformedToken
	FailureBadSignature
	FailureExpired
	FailureRevoked
	FailureUnknownUser
	FailureLookup
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureMissingToken:
		return "missing_token"
	case FailureMalformedToken:
		return "malformed_token"
	case FailureBadSignature:
		return "bad_signature"
	case FailureExpired:
		return "expired"
	case FailureRevoked:
		return "revoked"
	case FailureUnknownUser:
		return "unknown_user"
	case FailureLookup:
		return "lookup_error"
	default:
		return "unknown"
	}
}

// FailureOf maps a Verify error to its discriminant.
func FailureOf(err error) Failure {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrTokenExpired):
		return FailureExpired
	case errors.Is(err, ErrTokenSignature):
		return FailureBadSignature
	default:
		return FailureMalformedToken
	}
}

type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

type UserFinder interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type Resolution struct {
	User    user.User
	Claims  *Claims
	Failure Failure
	// Cause is set for FailureLookup; server-side logging only.
	Cause error
}

func (r Resolution) OK() bool {
	return r.Failure == FailureNone
}

type Resolver struct {
	tokens  TokenVerifier
	users   UserFinder
	revoker Revoker
}

func NewResolver(tokens TokenVerifier, users UserFinder, revoker Revoker) *Resolver {
	if revoker == nil {
		revoker = NopRevoker{}
	}

	return &Resolver{
		tokens:  tokens,
		users:   users,
		revoker: revoker,
	}
}

// ExtractToken returns what follows the literal "Bearer " prefix of the single
// Authorization header. Anything else yields false.
func ExtractToken(h http.Header) (string, bool) {
	values := h.Values("Authorization")
	if len(values) != 1 {
		return "", false
	}

	raw, ok := strings.CutPrefix(values[0], bearerPrefix)
	if !ok || raw == "" {
		return "", false
	}

	return raw, true
}

func (r *Resolver) Resolve(ctx context.Context, h http.Header) Resolution {
	raw, ok := ExtractToken(h)
	if !ok {
		return Resolution{Failure: FailureMissingToken}
	}

	claims, err := r.tokens.Verify(raw)
	if err != nil {
		return Resolution{Failure: FailureOf(err)}
	}

	revoked, err := r.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		// fail closed
		return Resolution{Failure: FailureLookup, Cause: err}
	}

	if revoked {
		return Resolution{Failure: FailureRevoked}
	}

	u, err := r.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Resolution{Failure: FailureUnknownUser}
		}
		return Resolution{Failure: FailureLookup, Cause: err}
	}

	return Resolution{User: u, Claims: claims}
}
