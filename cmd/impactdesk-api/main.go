package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/impactdesk/impactdesk/internal/api"
	"github.com/impactdesk/impactdesk/internal/assistant"
	"github.com/impactdesk/impactdesk/internal/auth"
	"github.com/impactdesk/impactdesk/internal/config"
	"github.com/impactdesk/impactdesk/internal/dbquery"
	"github.com/impactdesk/impactdesk/internal/llm"
	"github.com/impactdesk/impactdesk/internal/observability"
	recordspostgres "github.com/impactdesk/impactdesk/internal/records/postgres"
)

func main() {
	// A local .env is a development convenience; deployments set real
	// environment variables.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("impactdesk-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	portalDB, err := dbquery.Open(context.Background(), dbquery.DBConfig{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to open portal db", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = portalDB.Close() }()

	repo := recordspostgres.NewRepository(portalDB)

	deps := api.Dependencies{
		Logger: logger,
		Repo:   repo,
		Readiness: api.CombineReadinessChecks(
			api.CheckDatabaseDSN(cfg),
			api.CheckDatabasePing(repo),
		),
		DependencyTimout: time.Second,
	}

	if cfg.AI.Enabled {
		model, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			BaseURL:     cfg.AI.BaseURL,
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
			Timeout:     cfg.AI.Timeout,
			Referer:     cfg.AI.Referer,
			Title:       cfg.AI.Title,
		})
		if err != nil {
			logger.Error("failed to initialize assistant model client", slog.Any("error", err))
			os.Exit(1)
		}
		runner := dbquery.NewExecutor(portalDB, dbquery.ExecutorConfig{
			QueryTimeout: cfg.Query.Timeout,
			MaxRows:      cfg.Query.MaxRows,
		})
		deps.Assistant = assistant.New(model, runner, logger, assistant.Config{
			HistoryLimit: cfg.AI.HistoryLimit,
		})
		deps.AssistantModel = model.Model()
	}

	if cfg.Auth.Required {
		sessions := auth.NewPostgresSessionStore(portalDB)
		deps.AuthMiddleware = auth.Middleware(logger, sessions, cfg.Auth.CookieName)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.Bool("assistant_enabled", cfg.AI.Enabled),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
