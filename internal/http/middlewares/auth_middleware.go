package middlewares

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/todohub/internal/actorctx"
	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type IdentityResolver interface {
	Resolve(ctx context.Context, h http.Header) auth.Resolution
}

type AuthMiddleware struct {
	resolver IdentityResolver
	prom     *observability.Prom
	log      *slog.Logger
}

func NewAuthMiddleware(resolver IdentityResolver, prom *observability.Prom, log *slog.Logger) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return &AuthMiddleware{resolver: resolver, prom: prom, log: log}
}

// ResolveRequest resolves the caller at most once per request; later calls
// reuse the stored result.
func (m *AuthMiddleware) ResolveRequest(c *gin.Context) auth.Resolution {
	if v, ok := c.Get(ctxResolution); ok {
		if res, ok := v.(auth.Resolution); ok {
			return res
		}
	}

	res := m.resolver.Resolve(c.Request.Context(), c.Request.Header)
	c.Set(ctxResolution, res)

	return res
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		res := m.ResolveRequest(c)

		if !res.OK() {
			// the reason stays server-side
			attrs := []any{
				"reason", res.Failure.String(),
				"route", c.FullPath(),
				"request_id", c.GetString(CtxRequestID),
			}
			if res.Cause != nil {
				attrs = append(attrs, "err", res.Cause)
			}
			m.log.WarnContext(c.Request.Context(), "authentication failed", attrs...)
			m.prom.ObserveAuthFailure(res.Failure.String())

			abortJSON(c, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}

		// Stash the identity on both contexts
		c.Set(ctxUser, res.User)
		c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), res.User.ID))

		c.Next()
	}
}

// Optional helpers so handlers don't need to know the magic keys.

func CurrentUser(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUser)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok && u.ID != ""
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	u, ok := CurrentUser(c)
	if !ok {
		return "", false
	}
	return u.ID, true
}

// SetCurrentUser is for tests that mount handlers without the guard.
func SetCurrentUser(c *gin.Context, u user.User) {
	c.Set(ctxUser, u)
}
