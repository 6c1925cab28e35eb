package middlewares

// gin context keys
const (
	CtxRequestID  = "request_id"
	ctxResolution = "auth.resolution"
	ctxUser       = "auth.user"
)
