package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/geocoder89/todohub/internal/accounts"
	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type AccountDeleter interface {
	DeleteSelf(ctx context.Context, actorID, targetID string) (accounts.Deletion, error)
}

type UsersHandler struct {
	accounts AccountDeleter
}

func NewUsersHandler(accounts AccountDeleter) *UsersHandler {
	return &UsersHandler{accounts: accounts}
}

// DeleteAccount removes the caller's account and all of their todos.
func (h *UsersHandler) DeleteAccount(ctx *gin.Context) {
	actorID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Unauthorized")
		return
	}

	_, err := h.accounts.DeleteSelf(ctx.Request.Context(), actorID, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, auth.ErrForbidden) {
			RespondForbidden(ctx, "You can only delete your own account")
			return
		}
		RespondInternal(ctx, "An error occurred while deleting the account")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Account successfully deleted"})
}
