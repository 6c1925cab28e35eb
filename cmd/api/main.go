package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/todohub/internal/accounts"
	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/db"
	httpx "github.com/geocoder89/todohub/internal/http"
	"github.com/geocoder89/todohub/internal/http/handlers"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/geocoder89/todohub/internal/redisclient"
	"github.com/geocoder89/todohub/internal/repo/memory"
	"github.com/geocoder89/todohub/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type storage struct {
	users    handlers.UserStore
	todos    handlers.TodoStore
	accounts accounts.TxRunner
	ping     func(ctx context.Context) error
	close    func()
}

func main() {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	shutdownTracer := observability.NoopShutdown
	if cfg.OTELEnabled {
		shutdown, err := observability.InitTracer(ctx, observability.ServiceName, cfg.OTELEndpoint)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		shutdownTracer = shutdown
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(c)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	store, err := openStorage(ctx, cfg, prom, log)
	if err != nil {
		return err
	}
	defer store.close()

	revoker, closeRevoker, err := openRevoker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRevoker()

	tokens, err := auth.NewManager(cfg.JWTSecret, auth.DefaultTokenTTL)
	if err != nil {
		return err
	}

	seedCtx, cancelSeed := context.WithTimeout(ctx, 5*time.Second)
	created, err := db.EnsureSeedUser(seedCtx, store.users, cfg.SeedEmail, cfg.SeedPassword)
	cancelSeed()
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}
	if created {
		log.Info("seed user created", "email", cfg.SeedEmail)
	}

	// set up routers with the log
	router := httpx.NewRouter(httpx.Deps{
		Log:                 log,
		Env:                 cfg.Env,
		Users:               store.users,
		Todos:               store.todos,
		Accounts:            store.accounts,
		Tokens:              tokens,
		Revoker:             revoker,
		Prom:                prom,
		Gatherer:            reg,
		Ping:                store.ping,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		AuthRateLimitPerMin: cfg.AuthRateLimitPerMin,
		MaxBodyBytes:        cfg.MaxBodyBytes,
		Tracing:             cfg.OTELEnabled,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "db_driver", cfg.DBDriver, "token_revocation", cfg.TokenRevocation)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-stop:
	}

	log.Info("server shutting down")

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

func openStorage(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (storage, error) {
	if cfg.DBDriver == config.DriverMemory {
		log.Warn("using in-memory storage; data is lost on restart")

		s := memory.NewStore()
		return storage{users: s, todos: s, accounts: s, close: func() {}}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)
	if err != nil {
		return storage{}, fmt.Errorf("connect database: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.Migrate(migrateCtx, pool); err != nil {
		pool.Close()
		return storage{}, err
	}

	return storage{
		users:    postgres.NewUsersRepo(pool, prom),
		todos:    postgres.NewTodosRepo(pool, prom),
		accounts: postgres.NewAccountsRepo(pool, prom),
		ping:     pool.Ping,
		close:    pool.Close,
	}, nil
}

func openRevoker(ctx context.Context, cfg config.Config) (auth.Revoker, func(), error) {
	switch cfg.TokenRevocation {
	case config.RevocationMemory:
		return auth.NewMemoryRevoker(nil), func() {}, nil

	case config.RevocationRedis:
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err := rc.Ping(pingCtx); err != nil {
			_ = rc.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return rc, func() { _ = rc.Close() }, nil

	default:
		return auth.NopRevoker{}, func() {}, nil
	}
}
