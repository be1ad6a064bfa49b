package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mrz1836/postmark"

	"github.com/agemilang/portfolio-api/internal/api"
	"github.com/agemilang/portfolio-api/internal/blog"
	"github.com/agemilang/portfolio-api/internal/config"
	"github.com/agemilang/portfolio-api/internal/email"
	"github.com/agemilang/portfolio-api/internal/newsletter"
	"github.com/agemilang/portfolio-api/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = newLogger(cfg)
	slog.SetDefault(logger)

	ctx := context.Background()

	// Redis backs the attempt counter for every storage backend.
	redisStore, err := store.NewRedis(ctx, cfg.Redis.URL, store.RedisOptions{
		RetryAttempts:  cfg.Redis.RetryAttempts,
		RetryInterval:  cfg.Redis.RetryInterval,
		ConnectTimeout: cfg.Redis.ConnectTimeout,
	})
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisStore.Close()
	logger.Info("connected to Redis")

	backends := map[string]api.Pinger{"redis": redisStore}

	var repo newsletter.Repository
	switch cfg.Newsletter.Backend {
	case config.BackendPostgres:
		pgStore, err := store.NewPostgres(ctx, cfg.Postgres.URL, store.PostgresOptions{
			MaxConns:      cfg.Postgres.MaxConns,
			RetryAttempts: cfg.Postgres.RetryAttempts,
			RetryInterval: cfg.Postgres.RetryInterval,
		})
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pgStore.Close()
		logger.Info("connected to PostgreSQL")

		if err := pgStore.RunMigrations(ctx, logger); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("database migrations applied")

		backends["postgres"] = pgStore
		repo = store.NewPostgresRepository(pgStore, store.NewAttemptCounter(redisStore.Client()))
	default:
		repo = store.NewRedisRepository(redisStore.Client())
	}
	logger.Info("newsletter storage selected", "backend", cfg.Newsletter.Backend)

	var sender email.Sender
	switch cfg.Email.Provider {
	case config.EmailProviderPostmark:
		client := postmark.NewClient(cfg.Email.PostmarkServerToken, cfg.Email.PostmarkAccountToken)
		if cfg.Email.PostmarkBaseURL != "" {
			client.BaseURL = strings.TrimRight(cfg.Email.PostmarkBaseURL, "/")
			logger.Info("using custom postmark endpoint", "url", client.BaseURL)
		}
		sender = email.NewPostmarkSender(client)
	default:
		sender = email.NewDevSender(cfg.Email.DevOutputDir, logger)
		logger.Info("emails will be written to disk", "dir", cfg.Email.DevOutputDir)
	}

	mailer, err := email.NewMailer(sender, email.MailerConfig{
		From:      cfg.Email.FromEmail,
		ContactTo: cfg.Email.ContactToEmail,
		SiteName:  cfg.Email.SiteName,
		SiteURL:   cfg.Email.SiteURL,
	})
	if err != nil {
		logger.Error("failed to initialize mailer", "error", err)
		os.Exit(1)
	}

	if cfg.Newsletter.AdminSecret == "" {
		logger.Warn("NEWSLETTER_SECRET is not set; digest sending is disabled")
	}
	svc := newsletter.NewService(repo, mailer, newsletter.Config{
		AdminSecret: cfg.Newsletter.AdminSecret,
	}, logger)

	router := api.NewRouter(api.Dependencies{
		Newsletter: svc,
		Limiter:    repo,
		Posts:      blog.NewSource(cfg.ContentDir),
		Contact:    mailer,
		Backends:   backends,
		BaseURL:    cfg.BaseURL,
		Logger:     logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// newLogger emits JSON in production and text elsewhere.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
