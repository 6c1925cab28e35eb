package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/geocoder89/todohub/internal/security"
	"github.com/gin-gonic/gin"
)

const msgInvalidCredentials = "Invalid email or password"

type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdateEmail(ctx context.Context, id, email string) (user.User, error)
}

type TokenService interface {
	Issue(userID string) (string, error)
	Verify(token string) (*auth.Claims, error)
}

type AuthHandler struct {
	users   UserStore
	tokens  TokenService
	revoker auth.Revoker
	prom    *observability.Prom
	log     *slog.Logger
}

// NewAuthHandler wires registration, login and logout. revoker may be nil,
// in which case logout is purely client-side.
func NewAuthHandler(users UserStore, tokens TokenService, revoker auth.Revoker, prom *observability.Prom, log *slog.Logger) *AuthHandler {
	if revoker == nil {
		revoker = auth.NopRevoker{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{users: users, tokens: tokens, revoker: revoker, prom: prom, log: log}
}

type sessionResponse struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.User.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			RespondUnprocessable(ctx, []FieldError{{
				Field:   "user.password",
				Rule:    "password_bytes",
				Message: validationMessage("password_bytes", "", 0),
			}})
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "hash password failed", "err", err)
		RespondInternal(ctx, "could not create account")
		return
	}

	u, err := h.users.Create(ctx.Request.Context(), user.NormalizeEmail(req.User.Email), hash)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondUnprocessable(ctx, []FieldError{{
				Field:   "user.email",
				Rule:    "unique",
				Message: validationMessage("unique", "", 0),
			}})
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "create user failed", "err", err)
		RespondInternal(ctx, "could not create account")
		return
	}

	token, err := h.tokens.Issue(u.ID)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "issue token failed", "user_id", u.ID, "err", err)
		RespondInternal(ctx, "could not create account")
		return
	}

	ctx.JSON(http.StatusCreated, sessionResponse{User: u, Token: token})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	u, err := h.users.GetByEmail(ctx.Request.Context(), user.NormalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			h.log.ErrorContext(ctx.Request.Context(), "login lookup failed", "err", err)
			h.prom.ObserveLogin(observability.LoginError)
			RespondInternal(ctx, "could not sign in")
			return
		}
		// same bcrypt cost on a miss so response time does not reveal which emails exist
		_ = security.CheckPassword(dummyHash(), req.Password)
		h.prom.ObserveLogin(observability.LoginInvalid)
		RespondUnauthorized(ctx, msgInvalidCredentials)
		return
	}

	if err := security.CheckPassword(u.PasswordHash, req.Password); err != nil {
		h.prom.ObserveLogin(observability.LoginInvalid)
		RespondUnauthorized(ctx, msgInvalidCredentials)
		return
	}

	token, err := h.tokens.Issue(u.ID)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "issue token failed", "user_id", u.ID, "err", err)
		h.prom.ObserveLogin(observability.LoginError)
		RespondInternal(ctx, "could not sign in")
		return
	}

	h.prom.ObserveLogin(observability.LoginSuccess)
	ctx.JSON(http.StatusOK, sessionResponse{User: u, Token: token})
}

// Logout always succeeds. With a revocation backend, a valid bearer token
// is denylisted until its own expiry.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	if raw, ok := auth.ExtractToken(ctx.Request.Header); ok {
		if claims, err := h.tokens.Verify(raw); err == nil && claims.ExpiresAt != nil {
			if err := h.revoker.Revoke(ctx.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
				h.log.WarnContext(ctx.Request.Context(), "token revocation failed", "user_id", claims.UserID, "err", err)
			}
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

var (
	dummyOnce sync.Once
	dummy     string
)

func dummyHash() string {
	dummyOnce.Do(func() {
		dummy, _ = security.HashPassword("Dummy-password-1!")
	})
	return dummy
}
