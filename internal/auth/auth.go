// Package auth authenticates portal requests against the shared
// session table written by the portal's login flow. A request carries
// a session ID in a cookie (or a bearer token for API clients); the
// validator resolves it to the logged-in user.
package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const RoleAdmin = "Admin"

type Identity struct {
	UserID int64
	Email  string
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

type SessionValidator interface {
	Validate(ctx context.Context, sessionID string) (Identity, bool)
}

// PostgresSessionStore reads the express-session style "session" table:
// sid (varchar PK), sess (json), expire (timestamp).
type PostgresSessionStore struct {
	db *sql.DB
}

func NewPostgresSessionStore(db *sql.DB) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

func (s *PostgresSessionStore) Validate(ctx context.Context, sessionID string) (Identity, bool) {
	identity, err := s.lookup(ctx, sessionID)
	if err != nil {
		return Identity{}, false
	}
	return identity, true
}

func (s *PostgresSessionStore) lookup(ctx context.Context, sessionID string) (Identity, error) {
	query := `
SELECT sess, expire
FROM session
WHERE sid = $1`

	var sessJSON []byte
	var expire time.Time
	if err := s.db.QueryRowContext(ctx, query, sessionID).Scan(&sessJSON, &expire); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Identity{}, fmt.Errorf("session not found")
		}
		return Identity{}, fmt.Errorf("load session: %w", err)
	}
	if time.Now().After(expire) {
		return Identity{}, fmt.Errorf("session expired")
	}

	// Payload shape written by the portal login flow.
	var payload struct {
		User struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(sessJSON, &payload); err != nil {
		return Identity{}, fmt.Errorf("decode session payload: %w", err)
	}
	if payload.User.ID == 0 {
		return Identity{}, fmt.Errorf("session has no user")
	}

	return Identity{
		UserID: payload.User.ID,
		Email:  payload.User.Email,
		Role:   payload.User.Role,
	}, nil
}
