package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is the body of every non-2xx response. Error is always a plain
// string so clients can display it directly.
type APIError struct {
	Error     string       `json:"error"`
	Code      string       `json:"code"`
	RequestID string       `json:"requestId,omitempty"`
	Errors    []string     `json:"errors,omitempty"`
	Fields    []FieldError `json:"fields,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string) {
	ctx.JSON(status, APIError{
		Error:     message,
		Code:      code,
		RequestID: requestIDFrom(ctx),
	})
}

func RespondBadRequest(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusUnauthorized, APIError{
		Error:     message,
		Code:      "unauthorized",
		RequestID: requestIDFrom(ctx),
		Errors:    []string{message},
	})
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message)
}

// RespondUnprocessable reports field-level validation failures. The first
// message doubles as the top-level error.
func RespondUnprocessable(ctx *gin.Context, fields []FieldError) {
	messages := make([]string, 0, len(fields))
	for _, f := range fields {
		messages = append(messages, f.FullMessage())
	}

	msg := "Validation failed"
	if len(messages) > 0 {
		msg = messages[0]
	}

	ctx.JSON(http.StatusUnprocessableEntity, APIError{
		Error:     msg,
		Code:      "validation_failed",
		RequestID: requestIDFrom(ctx),
		Errors:    messages,
		Fields:    fields,
	})
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message)
}

func RespondUnavailable(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusServiceUnavailable, "unavailable", message)
}
