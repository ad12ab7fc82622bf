package services

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/lettermail/go-lettermail-server/repository"
	"github.com/lettermail/go-lettermail-server/types"
)

func newSessionServiceWithMock(t *testing.T) (*SessionService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewSessionService(repository.NewSessionRepository(db), 24), mock, db
}

func TestSessionCreate_TokenShape(t *testing.T) {
	ss, mock, db := newSessionServiceWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+sessions`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	session, err := ss.Create(context.Background(), 1)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	raw, decErr := hex.DecodeString(session.Token)
	if decErr != nil || len(raw) != sessionTokenSize {
		t.Fatalf("token must be %d random bytes hex encoded, got %q", sessionTokenSize, session.Token)
	}
	ttl := session.ExpiresAt.Sub(session.CreatedAt)
	if ttl != 24*time.Hour {
		t.Fatalf("unexpected session ttl: %v", ttl)
	}
}

func TestSessionValidate_EmptyToken(t *testing.T) {
	ss, _, db := newSessionServiceWithMock(t)
	defer db.Close()

	_, err := ss.Validate(context.Background(), "")
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("want types.ErrNotFound, got %v", err)
	}
}

func TestSessionValidate_ExpiredToken(t *testing.T) {
	ss, mock, db := newSessionServiceWithMock(t)
	defer db.Close()

	// the expiry predicate filters the row, the driver reports no rows
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+sessions\s+s\s+JOIN\s+users\s+u`).
		WithArgs("stale-token").
		WillReturnError(sql.ErrNoRows)

	_, err := ss.Validate(context.Background(), "stale-token")
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("want types.ErrNotFound, got %v", err)
	}
}

func TestSessionDestroy(t *testing.T) {
	ss, mock, db := newSessionServiceWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+sessions\s+WHERE\s+token\s*=\s*\$1`).
		WithArgs("tok").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := ss.Destroy(context.Background(), "tok"); err != nil {
		t.Fatalf("Destroy error: %v", err)
	}
}
