package http

import (
	"context"
	"log/slog"

	"github.com/geocoder89/todohub/internal/accounts"
	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/http/handlers"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps is everything the router needs. Only Users, Todos, Accounts and
// Tokens are required.
type Deps struct {
	Log      *slog.Logger
	Env      string
	Users    handlers.UserStore
	Todos    handlers.TodoStore
	Accounts accounts.TxRunner
	Tokens   *auth.Manager
	Revoker  auth.Revoker

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Ping     func(ctx context.Context) error

	CORSAllowedOrigins  []string
	AuthRateLimitPerMin int
	MaxBodyBytes        int64
	Tracing             bool
}

func NewRouter(d Deps) *gin.Engine {
	if d.Env != "dev" && d.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.MaxBodyBytes <= 0 {
		d.MaxBodyBytes = 1 << 20
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	if d.Tracing {
		r.Use(otelgin.Middleware(observability.ServiceName))
	}
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(d.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// Routes
	h := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	resolver := auth.NewResolver(d.Tokens, d.Users, d.Revoker)
	authMW := middlewares.NewAuthMiddleware(resolver, d.Prom, d.Log)
	limiter := middlewares.NewRateLimiter(d.AuthRateLimitPerMin)

	authHandler := handlers.NewAuthHandler(d.Users, d.Tokens, d.Revoker, d.Prom, d.Log)
	usersHandler := handlers.NewUsersHandler(accounts.NewService(d.Accounts, d.Log))
	profileHandler := handlers.NewProfileHandler(d.Users)
	todosHandler := handlers.NewTodosHandler(d.Todos)

	v1 := r.Group("/api/v1")

	// public
	v1.POST("/users", limiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Register)
	v1.POST("/sessions", limiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
	v1.DELETE("/sessions", authHandler.Logout)
	v1.DELETE("/sessions/:id", authHandler.Logout)

	// authenticated
	private := v1.Group("")
	private.Use(authMW.RequireAuth())

	private.DELETE("/users/:id", usersHandler.DeleteAccount)

	private.GET("/profile", profileHandler.Show)
	private.PATCH("/profile", profileHandler.Update)
	private.PUT("/profile", profileHandler.Update)

	private.GET("/todos", todosHandler.List)
	private.POST("/todos", todosHandler.Create)
	private.GET("/todos/:id", todosHandler.Show)
	private.PATCH("/todos/:id", todosHandler.Update)
	private.PUT("/todos/:id", todosHandler.Update)
	private.DELETE("/todos/:id", todosHandler.Delete)

	return r
}
