package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/impactdesk/impactdesk/internal/assistant"
	"github.com/impactdesk/impactdesk/internal/config"
	"github.com/impactdesk/impactdesk/internal/llm"
	"github.com/impactdesk/impactdesk/internal/observability"
	"github.com/impactdesk/impactdesk/internal/records"
)

type ReadinessCheck func(ctx context.Context) error

// Chatter runs one full assistant turn for a user message.
type Chatter interface {
	Answer(ctx context.Context, history []llm.Message, userMessage string) (assistant.Outcome, error)
}

// PortalRepository is the slice of the records store the HTTP layer needs.
type PortalRepository interface {
	HealthCheck(ctx context.Context) error
	ListParticipants(ctx context.Context, search string) ([]records.Participant, error)
	GetParticipant(ctx context.Context, participantID int64) (records.Participant, error)
	CreateParticipant(ctx context.Context, in records.CreateParticipantInput) (records.Participant, error)
	ListParticipantMilestones(ctx context.Context, participantID int64) ([]records.Milestone, error)
	ListUpcomingEvents(ctx context.Context, limit int) ([]records.Event, error)
	GetDashboardSummary(ctx context.Context) (records.DashboardSummary, error)
}

type Dependencies struct {
	Logger           *slog.Logger
	Readiness        ReadinessCheck
	AuthMiddleware   func(http.Handler) http.Handler
	DependencyTimout time.Duration
	Repo             PortalRepository
	Assistant        Chatter
	AssistantModel   string
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	protected := http.NewServeMux()
	protected.HandleFunc("POST /v1/assistant/chat", func(w http.ResponseWriter, r *http.Request) {
		handleAssistantChat(deps, w, r)
	})
	protected.HandleFunc("GET /v1/assistant/health", func(w http.ResponseWriter, r *http.Request) {
		handleAssistantHealth(deps, w, r)
	})
	protected.HandleFunc("GET /v1/participants", func(w http.ResponseWriter, r *http.Request) {
		handleListParticipants(deps, w, r)
	})
	protected.HandleFunc("POST /v1/participants", func(w http.ResponseWriter, r *http.Request) {
		handleCreateParticipant(deps, w, r)
	})
	protected.HandleFunc("GET /v1/participants/{id}", func(w http.ResponseWriter, r *http.Request) {
		handleGetParticipant(deps, w, r)
	})
	protected.HandleFunc("GET /v1/participants/{id}/milestones", func(w http.ResponseWriter, r *http.Request) {
		handleParticipantMilestones(deps, w, r)
	})
	protected.HandleFunc("GET /v1/events/upcoming", func(w http.ResponseWriter, r *http.Request) {
		handleUpcomingEvents(deps, w, r)
	})
	protected.HandleFunc("GET /v1/dashboard", func(w http.ResponseWriter, r *http.Request) {
		handleDashboard(deps, w, r)
	})

	var protectedHandler http.Handler = protected
	if cfg.Auth.Required {
		if deps.AuthMiddleware == nil {
			if deps.Logger != nil {
				deps.Logger.Error("auth required but auth middleware missing")
			}
			protectedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(r.Context(), w, http.StatusInternalServerError, "AUTH_MIDDLEWARE_MISSING", "auth middleware is required by configuration", false, nil)
			})
		} else {
			protectedHandler = deps.AuthMiddleware(protectedHandler)
		}
	}
	mux.Handle("POST /v1/assistant/chat", protectedHandler)
	mux.Handle("GET /v1/assistant/health", protectedHandler)
	mux.Handle("GET /v1/participants", protectedHandler)
	mux.Handle("POST /v1/participants", protectedHandler)
	mux.Handle("GET /v1/participants/{id}", protectedHandler)
	mux.Handle("GET /v1/participants/{id}/milestones", protectedHandler)
	mux.Handle("GET /v1/events/upcoming", protectedHandler)
	mux.Handle("GET /v1/dashboard", protectedHandler)

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

func CheckDatabaseDSN(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		if cfg.Database.DSN == "" {
			return errors.New("database dsn is not configured")
		}
		return nil
	}
}

func CheckDatabasePing(repo PortalRepository) ReadinessCheck {
	return func(ctx context.Context) error {
		if repo == nil {
			return errors.New("portal repository is not configured")
		}
		return repo.HealthCheck(ctx)
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
