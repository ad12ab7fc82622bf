package services

import (
	"context"
	"errors"
	"time"

	"github.com/lettermail/go-lettermail-server/repository"
	"github.com/lettermail/go-lettermail-server/types"
)

type MailService struct {
	emailRepo *repository.EmailRepository
	userRepo  *repository.UserRepository
}

func NewMailService(emailRepo *repository.EmailRepository, userRepo *repository.UserRepository) *MailService {
	if emailRepo == nil || userRepo == nil {
		panic("emailRepo and userRepo cannot be nil")
	}
	return &MailService{
		emailRepo: emailRepo,
		userRepo:  userRepo,
	}
}

// Send stores a new email from sender to recipient. A missing or unknown
// recipient rejects the send with ErrBadRequest before any state change.
func (ms *MailService) Send(ctx context.Context, senderID int64, input *types.InputSendEmail, attachmentPath, attachmentName string) (*types.Email, error) {
	if input.RecipientID <= 0 {
		return nil, types.ErrBadRequest
	}
	if _, err := ms.userRepo.GetByID(ctx, input.RecipientID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.ErrBadRequest
		}
		return nil, err
	}

	subject := input.Subject
	if subject == "" {
		subject = types.NoSubjectPlaceholder
	}

	email := &types.Email{
		SenderID:       senderID,
		RecipientID:    input.RecipientID,
		Subject:        subject,
		Body:           input.Body,
		AttachmentPath: attachmentPath,
		AttachmentName: attachmentName,
		SentAt:         time.Now().UTC(),
	}
	return ms.emailRepo.Create(ctx, email)
}

// ListFolder returns one page of the user's inbox or outbox together with
// the total count of visible emails in that folder. Pages are numbered
// from 1; anything lower is treated as the first page.
func (ms *MailService) ListFolder(ctx context.Context, userID int64, folder types.Folder, page, pageSize int) ([]types.EmailListItem, int, error) {
	return ms.emailRepo.ListFolder(ctx, userID, folder, page, pageSize)
}

// GetEmail fetches a single email, enforcing the participant visibility
// predicate (see repository.EmailRepository.GetByIDForUser).
func (ms *MailService) GetEmail(ctx context.Context, emailID, userID int64) (*types.Email, error) {
	return ms.emailRepo.GetByIDForUser(ctx, emailID, userID)
}
