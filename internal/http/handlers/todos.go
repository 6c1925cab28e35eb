package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

const msgTodoNotFound = "Todo not found"

type TodoStore interface {
	ListByUser(ctx context.Context, userID string) ([]todo.Todo, error)
	GetTodo(ctx context.Context, id string) (todo.Todo, error)
	CreateTodo(ctx context.Context, userID string, f todo.CreateFields) (todo.Todo, error)
	UpdateTodo(ctx context.Context, id, userID string, f todo.UpdateFields) (todo.Todo, error)
	DeleteTodo(ctx context.Context, id, userID string) error
}

type TodosHandler struct {
	todos TodoStore
}

func NewTodosHandler(todos TodoStore) *TodosHandler {
	return &TodosHandler{todos: todos}
}

func (h *TodosHandler) List(ctx *gin.Context) {
	actorID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Unauthorized")
		return
	}

	items, err := h.todos.ListByUser(ctx.Request.Context(), actorID)
	if err != nil {
		RespondInternal(ctx, "could not list todos")
		return
	}

	if items == nil {
		items = []todo.Todo{}
	}

	ctx.JSON(http.StatusOK, items)
}

func (h *TodosHandler) Create(ctx *gin.Context) {
	actorID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Unauthorized")
		return
	}

	var req todo.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if err := req.Todo.Validate(); err != nil {
		respondBlankTitle(ctx)
		return
	}

	t, err := h.todos.CreateTodo(ctx.Request.Context(), actorID, *req.Todo)
	if err != nil {
		RespondInternal(ctx, "could not create todo")
		return
	}

	ctx.JSON(http.StatusCreated, t)
}

func (h *TodosHandler) Show(ctx *gin.Context) {
	t, ok := h.loadOwned(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, t)
}

func (h *TodosHandler) Update(ctx *gin.Context) {
	t, ok := h.loadOwned(ctx)
	if !ok {
		return
	}

	var req todo.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if err := req.Todo.Validate(); err != nil {
		respondBlankTitle(ctx)
		return
	}

	updated, err := h.todos.UpdateTodo(ctx.Request.Context(), t.ID, t.UserID, *req.Todo)
	if err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			RespondNotFound(ctx, msgTodoNotFound)
			return
		}
		RespondInternal(ctx, "could not update todo")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *TodosHandler) Delete(ctx *gin.Context) {
	t, ok := h.loadOwned(ctx)
	if !ok {
		return
	}

	if err := h.todos.DeleteTodo(ctx.Request.Context(), t.ID, t.UserID); err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			RespondNotFound(ctx, msgTodoNotFound)
			return
		}
		RespondInternal(ctx, "could not delete todo")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// loadOwned fetches the todo named by :id and checks the caller owns it.
// Absent and foreign todos get the same 404.
func (h *TodosHandler) loadOwned(ctx *gin.Context) (todo.Todo, bool) {
	actorID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Unauthorized")
		return todo.Todo{}, false
	}

	var record auth.Owned

	t, err := h.todos.GetTodo(ctx.Request.Context(), ctx.Param("id"))
	switch {
	case err == nil:
		record = t
	case errors.Is(err, todo.ErrNotFound):
	default:
		RespondInternal(ctx, "could not load todo")
		return todo.Todo{}, false
	}

	if err := auth.AuthorizeOwnership(actorID, record); err != nil {
		RespondNotFound(ctx, msgTodoNotFound)
		return todo.Todo{}, false
	}

	return t, true
}

func respondBlankTitle(ctx *gin.Context) {
	RespondUnprocessable(ctx, []FieldError{{
		Field:   "todo.title",
		Rule:    "blank",
		Message: validationMessage("blank", "", 0),
	}})
}
