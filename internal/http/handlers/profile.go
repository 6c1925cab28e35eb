package handlers

import (
	"errors"
	"net/http"

	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	users UserStore
}

func NewProfileHandler(users UserStore) *ProfileHandler {
	return &ProfileHandler{users: users}
}

func (h *ProfileHandler) Show(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Unauthorized")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *ProfileHandler) Update(ctx *gin.Context) {
	current, ok := middlewares.CurrentUser(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Unauthorized")
		return
	}

	var req user.UpdateProfileRequest
	if !BindJSON(ctx, &req) {
		return
	}

	u, err := h.users.UpdateEmail(ctx.Request.Context(), current.ID, user.NormalizeEmail(req.User.Email))
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			RespondUnprocessable(ctx, []FieldError{{
				Field:   "user.email",
				Rule:    "unique",
				Message: validationMessage("unique", "", 0),
			}})
		case errors.Is(err, user.ErrNotFound):
			// deleted between resolve and update
			RespondUnauthorized(ctx, "Unauthorized")
		default:
			RespondInternal(ctx, "could not update profile")
		}
		return
	}

	ctx.JSON(http.StatusOK, u)
}
