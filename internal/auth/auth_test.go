package auth

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

const sessionQuery = `
SELECT sess, expire
FROM session
WHERE sid = $1`

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestSessionStoreResolvesUser(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewPostgresSessionStore(db)

	mock.ExpectQuery(regexp.QuoteMeta(sessionQuery)).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"sess", "expire"}).
			AddRow([]byte(`{"user":{"id":42,"email":"director@example.org","role":"Admin"}}`), time.Now().Add(time.Hour)))

	identity, ok := store.Validate(context.Background(), "sess-1")
	if !ok {
		t.Fatal("expected valid session")
	}
	if identity.UserID != 42 || identity.Email != "director@example.org" || !identity.IsAdmin() {
		t.Fatalf("identity = %+v", identity)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestSessionStoreRejectsExpiredSession(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewPostgresSessionStore(db)

	mock.ExpectQuery(regexp.QuoteMeta(sessionQuery)).
		WithArgs("sess-old").
		WillReturnRows(sqlmock.NewRows([]string{"sess", "expire"}).
			AddRow([]byte(`{"user":{"id":1,"role":"Admin"}}`), time.Now().Add(-time.Minute)))

	if _, ok := store.Validate(context.Background(), "sess-old"); ok {
		t.Fatal("expired session must be rejected")
	}
}

func TestSessionStoreRejectsUnknownSession(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewPostgresSessionStore(db)

	mock.ExpectQuery(regexp.QuoteMeta(sessionQuery)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	if _, ok := store.Validate(context.Background(), "missing"); ok {
		t.Fatal("unknown session must be rejected")
	}
}

func TestSessionStoreRejectsSessionWithoutUser(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewPostgresSessionStore(db)

	mock.ExpectQuery(regexp.QuoteMeta(sessionQuery)).
		WithArgs("sess-anon").
		WillReturnRows(sqlmock.NewRows([]string{"sess", "expire"}).
			AddRow([]byte(`{"cookie":{}}`), time.Now().Add(time.Hour)))

	if _, ok := store.Validate(context.Background(), "sess-anon"); ok {
		t.Fatal("session without a user must be rejected")
	}
}
