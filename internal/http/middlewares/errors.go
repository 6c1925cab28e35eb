package middlewares

import "github.com/gin-gonic/gin"

// abortJSON mirrors the handlers' error body so clients see one shape.
func abortJSON(c *gin.Context, status int, code, message string) {
	body := gin.H{
		"error": message,
		"code":  code,
	}

	if id := c.GetString(CtxRequestID); id != "" {
		body["requestId"] = id
	}

	c.AbortWithStatusJSON(status, body)
}
