package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lettermail/go-lettermail-server/types"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new account. The unique index on email is the final
// arbiter of uniqueness; a violation surfaces as ErrUserExists.
func (r *UserRepository) Create(ctx context.Context, user *types.User) (*types.User, error) {
	query :=
		`INSERT INTO users (full_name, email, password_hash, password_salt)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.FullName, user.Email, user.PasswordHash, user.PasswordSalt).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if hErr := handleError(err); errors.Is(hErr, types.ErrConflict) {
			return nil, types.ErrUserExists
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	query :=
		`SELECT id, full_name, email, password_hash, password_salt, created_at FROM users
		 WHERE email = $1
		 `

	user := &types.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.FullName, &user.Email, &user.PasswordHash, &user.PasswordSalt, &user.CreatedAt)
	if err != nil {
		return nil, handleError(err)
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*types.User, error) {
	query :=
		`SELECT id, full_name, email, password_hash, password_salt, created_at FROM users
		 WHERE id = $1
		 `

	user := &types.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.FullName, &user.Email, &user.PasswordHash, &user.PasswordSalt, &user.CreatedAt)
	if err != nil {
		return nil, handleError(err)
	}

	return user, nil
}

// ListRecipients returns all users except the given one, for the compose
// recipient picker.
func (r *UserRepository) ListRecipients(ctx context.Context, excludeID int64) ([]types.OutputRecipient, error) {
	query :=
		`SELECT id, full_name, email FROM users
		 WHERE id != $1
		 ORDER BY full_name ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, excludeID)
	if err != nil {
		return nil, handleError(err)
	}
	defer rows.Close()

	recipients := make([]types.OutputRecipient, 0)
	for rows.Next() {
		var rec types.OutputRecipient
		if err := rows.Scan(&rec.ID, &rec.FullName, &rec.Email); err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}
