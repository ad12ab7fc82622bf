package repository

import (
	"context"
	"database/sql"

	"github.com/lettermail/go-lettermail-server/types"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *types.Session) error {
	query :=
		`INSERT INTO sessions (token, user_id, created_at, expires_at)
		 VALUES ($1, $2, $3, $4)
		 `

	_, err := r.db.ExecContext(ctx, query,
		session.Token, session.UserID, session.CreatedAt, session.ExpiresAt)
	return handleError(err)
}

// GetUserByToken resolves a live session token to its user in one round trip.
// Expired or unknown tokens yield ErrNotFound.
func (r *SessionRepository) GetUserByToken(ctx context.Context, token string) (*types.User, error) {
	query :=
		`SELECT u.id, u.full_name, u.email, u.created_at
		 FROM sessions s
		 JOIN users u ON s.user_id = u.id
		 WHERE s.token = $1 AND s.expires_at > now()
		 `

	user := &types.User{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&user.ID, &user.FullName, &user.Email, &user.CreatedAt)
	if err != nil {
		return nil, handleError(err)
	}
	return user, nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	query := `DELETE FROM sessions WHERE token = $1`

	_, err := r.db.ExecContext(ctx, query, token)
	return handleError(err)
}

// DeleteExpired removes all sessions past their expiry. Run from a cron job.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at <= now()`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, handleError(err)
	}
	return result.RowsAffected()
}
