package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/lettermail/go-lettermail-server/global"
	"github.com/lettermail/go-lettermail-server/repository"
	"github.com/lettermail/go-lettermail-server/types"
)

const sessionTokenSize = 32

type SessionService struct {
	sessionRepo *repository.SessionRepository
	duration    time.Duration
}

func NewSessionService(sessionRepo *repository.SessionRepository, durationHours int) *SessionService {
	if sessionRepo == nil {
		panic("sessionRepo cannot be nil")
	}
	if durationHours <= 0 {
		durationHours = 24
	}
	return &SessionService{
		sessionRepo: sessionRepo,
		duration:    time.Duration(durationHours) * time.Hour,
	}
}

// Create issues a new opaque session token for the user.
func (ss *SessionService) Create(ctx context.Context, userID int64) (*types.Session, error) {
	tokenBytes := make([]byte, sessionTokenSize)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &types.Session{
		Token:     hex.EncodeToString(tokenBytes),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ss.duration),
	}
	if err := ss.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Validate resolves a token to its user. Expired and unknown tokens are
// both ErrNotFound.
func (ss *SessionService) Validate(ctx context.Context, token string) (*types.User, error) {
	if token == "" {
		return nil, types.ErrNotFound
	}
	return ss.sessionRepo.GetUserByToken(ctx, token)
}

// Destroy removes the session. Unknown tokens are not an error.
func (ss *SessionService) Destroy(ctx context.Context, token string) error {
	return ss.sessionRepo.Delete(ctx, token)
}

// RemoveExpiredSessions sweeps stale rows; wired to a cron schedule at startup.
func (ss *SessionService) RemoveExpiredSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := ss.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		global.Logger.Log("error", "failed to remove expired sessions", "error", err.Error())
		return
	}
	if removed > 0 {
		global.Logger.Log("info", "removed expired sessions", "count", removed)
	}
}

// SessionDuration is the configured session time to live.
func (ss *SessionService) SessionDuration() time.Duration {
	return ss.duration
}
