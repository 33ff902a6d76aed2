package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/ayush/blog-platform/internal/auth"
	"github.com/ayush/blog-platform/internal/blog"
	"github.com/ayush/blog-platform/internal/config"
	"github.com/ayush/blog-platform/internal/logging"
	"github.com/ayush/blog-platform/internal/middleware"
	"github.com/ayush/blog-platform/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: loading .env: %v", err)
	}

	app := &cli.App{
		Name:  "blog-server",
		Usage: "blog platform backend",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Usage: "HTTP listen port (overrides PORT)"},
			&cli.StringFlag{Name: "store", Usage: "store driver, mongo or postgres (overrides STORE_DRIVER)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (overrides LOG_LEVEL)"},
		},
		Action: serve,
		Commands: []*cli.Command{
			{Name: "serve", Usage: "run the HTTP server", Action: serve},
			{Name: "migrate", Usage: "create indexes and tables, then exit", Action: migrate},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}

// loadConfig reads the environment, applies flag overrides and validates.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Load()
	if c.IsSet("port") {
		cfg.Port = c.String("port")
	}
	if c.IsSet("store") {
		cfg.StoreDriver = c.String("store")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func migrate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	st, err := store.Open(c.Context, cfg)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	if err := st.Migrate(c.Context); err != nil {
		return err
	}
	logger.Info(c.Context, "migrations applied", "driver", cfg.StoreDriver)
	return nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)
	ctx := c.Context

	// ── Users and blogs ──────────────────────────────────────
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return fmt.Errorf("redis connect: %w", err)
	}
	defer rdb.Close()
	counters := store.NewCounterStore(rdb)

	// ── MinIO ────────────────────────────────────────────────
	covers, err := store.NewCoverStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		return fmt.Errorf("minio connect: %w", err)
	}

	// ── Services ─────────────────────────────────────────────
	tokens := auth.NewTokenIssuer([]byte(cfg.SecretKey), auth.SessionTTL)
	authHandler := auth.NewHandler(auth.NewService(st, tokens, logger), logger)
	blogHandler := blog.NewHandler(blog.NewService(st, counters, covers, logger), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, logger, tokens, authHandler, blogHandler),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server listening", "port", cfg.Port, "driver", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-quit:
	}

	logger.Info(ctx, "shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func newRouter(cfg *config.Config, logger logging.Logger, tokens *auth.TokenIssuer, authHandler *auth.Handler, blogHandler *blog.Handler) http.Handler {
	requireAuth := middleware.RequireAuth(tokens, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.With(requireAuth).Get("/profile", authHandler.Profile)
	})

	r.Route("/api/blogs", func(r chi.Router) {
		blogHandler.Mount(r, requireAuth)
	})

	return r
}
