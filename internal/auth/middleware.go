package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/impactdesk/impactdesk/internal/observability"
)

const DefaultCookieName = "portal.sid"

type contextKey string

const identityKey contextKey = "auth_identity"

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// Middleware authenticates each request through the session validator
// and installs the resolved Identity in the request context.
func Middleware(logger *slog.Logger, validator SessionValidator, cookieName string) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := extractSessionID(r, cookieName)
			if sessionID == "" {
				writeUnauthorized(w, r, "missing session")
				return
			}

			identity, ok := validator.Validate(r.Context(), sessionID)
			if !ok {
				if logger != nil {
					logger.WarnContext(r.Context(), "authentication failed",
						slog.String("trace_id", observability.TraceIDFromContext(r.Context())),
						slog.String("path", r.URL.Path),
					)
				}
				writeUnauthorized(w, r, "invalid or expired session")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireAdmin gates admin-only mutations behind the portal's Admin
// role. Must run inside Middleware.
func RequireAdmin(r *http.Request) error {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		return errAuthRequired
	}
	if !identity.IsAdmin() {
		return errAdminRequired
	}
	return nil
}

var (
	errAuthRequired  = &roleError{message: "authentication required"}
	errAdminRequired = &roleError{message: "admin access required"}
)

type roleError struct {
	message string
}

func (e *roleError) Error() string {
	return e.message
}

func extractSessionID(r *http.Request, cookieName string) string {
	if cookie, err := r.Cookie(cookieName); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return strings.TrimSpace(cookie.Value)
	}
	authorization := strings.TrimSpace(r.Header.Get("Authorization"))
	if authorization == "" {
		return ""
	}
	const bearerPrefix = "Bearer "
	if strings.HasPrefix(authorization, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(authorization, bearerPrefix))
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error_code": "UNAUTHORIZED",
		"message":    message,
		"retryable":  false,
		"trace_id":   observability.TraceIDFromContext(r.Context()),
	})
}
