package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/lettermail/go-lettermail-server/repository"
	"github.com/lettermail/go-lettermail-server/types"
)

func newMailServiceWithMock(t *testing.T) (*MailService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewMailService(repository.NewEmailRepository(db), repository.NewUserRepository(db)), mock, db
}

const (
	getUserByIDQ = `(?s)SELECT.+FROM\s+users\s+WHERE\s+id\s*=\s*\$1`
	insertEmailQ = `(?s)INSERT\s+INTO\s+emails`
)

func recipientRows(id int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "full_name", "email", "password_hash", "password_salt", "created_at"}).
		AddRow(id, "Bob Huang", "bob@example.com", []byte("h"), []byte("s"), time.Now().UTC())
}

func TestSend_EmptySubjectGetsPlaceholder(t *testing.T) {
	ms, mock, db := newMailServiceWithMock(t)
	defer db.Close()

	mock.ExpectQuery(getUserByIDQ).
		WithArgs(int64(2)).
		WillReturnRows(recipientRows(2))
	mock.ExpectQuery(insertEmailQ).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	email, err := ms.Send(context.Background(), 1, &types.InputSendEmail{RecipientID: 2, Body: "hi"}, "", "")
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if email.Subject != types.NoSubjectPlaceholder {
		t.Fatalf("want %q, got %q", types.NoSubjectPlaceholder, email.Subject)
	}
	if email.SentAt.IsZero() {
		t.Fatal("SentAt must be set")
	}
}

func TestSend_UnknownRecipient(t *testing.T) {
	ms, mock, db := newMailServiceWithMock(t)
	defer db.Close()

	mock.ExpectQuery(getUserByIDQ).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	_, err := ms.Send(context.Background(), 1, &types.InputSendEmail{RecipientID: 42, Body: "hi"}, "", "")
	if !errors.Is(err, types.ErrBadRequest) {
		t.Fatalf("want types.ErrBadRequest, got %v", err)
	}
}

func TestSend_MissingRecipient(t *testing.T) {
	ms, _, db := newMailServiceWithMock(t)
	defer db.Close()

	_, err := ms.Send(context.Background(), 1, &types.InputSendEmail{Body: "hi"}, "", "")
	if !errors.Is(err, types.ErrBadRequest) {
		t.Fatalf("want types.ErrBadRequest, got %v", err)
	}
}

func TestSend_SelfSendAllowed(t *testing.T) {
	ms, mock, db := newMailServiceWithMock(t)
	defer db.Close()

	mock.ExpectQuery(getUserByIDQ).
		WithArgs(int64(1)).
		WillReturnRows(recipientRows(1))
	mock.ExpectQuery(insertEmailQ).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(6)))

	email, err := ms.Send(context.Background(), 1, &types.InputSendEmail{RecipientID: 1, Subject: "note to self", Body: "x"}, "", "")
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if email.SenderID != email.RecipientID {
		t.Fatalf("unexpected participants: %+v", email)
	}
}
