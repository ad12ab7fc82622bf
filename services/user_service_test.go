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

func newUserServiceWithMock(t *testing.T) (*UserService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewUserService(repository.NewUserRepository(db)), mock, db
}

const (
	getByEmailQ = `(?s)SELECT.+FROM\s+users\s+WHERE\s+email\s*=\s*\$1`
	insertUserQ = `(?s)INSERT\s+INTO\s+users\s*\(full_name,\s*email,\s*password_hash,\s*password_salt\)`
)

func userRows(id int64, email string, hash, salt []byte) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "full_name", "email", "password_hash", "password_salt", "created_at"}).
		AddRow(id, "Alice Carter", email, hash, salt, time.Now().UTC())
}

func TestRegister_Success(t *testing.T) {
	us, mock, db := newUserServiceWithMock(t)
	defer db.Close()

	mock.ExpectQuery(getByEmailQ).
		WithArgs("alice@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(insertUserQ).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now().UTC()))

	input := &types.InputSignup{
		FullName:        "Alice Carter",
		Email:           "alice@example.com",
		Password:        "password123",
		PasswordConfirm: "password123",
	}
	user, err := us.Register(context.Background(), input)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.ID != 1 {
		t.Fatalf("unexpected id: %d", user.ID)
	}
	if len(user.PasswordHash) != pbkdf2KeyLength || len(user.PasswordSalt) != passwordSaltSize {
		t.Fatalf("unexpected hash/salt sizes: %d/%d", len(user.PasswordHash), len(user.PasswordSalt))
	}
}

func TestRegister_InvalidEmail(t *testing.T) {
	us, _, db := newUserServiceWithMock(t)
	defer db.Close()

	input := &types.InputSignup{FullName: "X", Email: "not-an-email", Password: "password123", PasswordConfirm: "password123"}
	_, err := us.Register(context.Background(), input)
	if !errors.Is(err, types.ErrInvalidEmail) {
		t.Fatalf("want types.ErrInvalidEmail, got %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	us, mock, db := newUserServiceWithMock(t)
	defer db.Close()

	salt := []byte("0123456789abcdef")
	mock.ExpectQuery(getByEmailQ).
		WithArgs("alice@example.com").
		WillReturnRows(userRows(1, "alice@example.com", hashPassword("x", salt), salt))

	input := &types.InputSignup{FullName: "X", Email: "alice@example.com", Password: "password123", PasswordConfirm: "password123"}
	_, err := us.Register(context.Background(), input)
	if !errors.Is(err, types.ErrUserExists) {
		t.Fatalf("want types.ErrUserExists, got %v", err)
	}
}

func TestAuthenticate_Success(t *testing.T) {
	us, mock, db := newUserServiceWithMock(t)
	defer db.Close()

	salt := []byte("0123456789abcdef")
	mock.ExpectQuery(getByEmailQ).
		WithArgs("alice@example.com").
		WillReturnRows(userRows(1, "alice@example.com", hashPassword("password123", salt), salt))

	user, err := us.Authenticate(context.Background(), "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if user.ID != 1 {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	us, mock, db := newUserServiceWithMock(t)
	defer db.Close()

	salt := []byte("0123456789abcdef")
	mock.ExpectQuery(getByEmailQ).
		WithArgs("alice@example.com").
		WillReturnRows(userRows(1, "alice@example.com", hashPassword("password123", salt), salt))

	_, err := us.Authenticate(context.Background(), "alice@example.com", "wrong")
	if !errors.Is(err, types.ErrNotAuthorized) {
		t.Fatalf("want types.ErrNotAuthorized, got %v", err)
	}
}

func TestAuthenticate_UnknownEmail(t *testing.T) {
	us, mock, db := newUserServiceWithMock(t)
	defer db.Close()

	// unknown email and wrong password must be indistinguishable
	mock.ExpectQuery(getByEmailQ).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := us.Authenticate(context.Background(), "ghost@example.com", "password123")
	if !errors.Is(err, types.ErrNotAuthorized) {
		t.Fatalf("want types.ErrNotAuthorized, got %v", err)
	}
}
