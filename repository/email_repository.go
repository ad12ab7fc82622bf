package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lettermail/go-lettermail-server/types"
)

type EmailRepository struct {
	db *sql.DB
}

func NewEmailRepository(db *sql.DB) *EmailRepository {
	return &EmailRepository{db: db}
}

// DB exposes the underlying handle so coordinators can scope transactions
// across repository calls (see WithTx).
func (r *EmailRepository) DB() *sql.DB {
	return r.db
}

func (r *EmailRepository) Create(ctx context.Context, email *types.Email) (*types.Email, error) {
	query :=
		`INSERT INTO emails (sender_id, recipient_id, subject, body, attachment_path, attachment_name, sent_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		email.SenderID, email.RecipientID, email.Subject, email.Body,
		email.AttachmentPath, email.AttachmentName, email.SentAt).Scan(&email.ID)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return email, nil
}

// ListFolder returns one page of a user's inbox or outbox, newest first,
// joined with the counterpart's display name, plus the total count under
// the same visibility filter.
func (r *EmailRepository) ListFolder(ctx context.Context, userID int64, folder types.Folder, page, pageSize int) ([]types.EmailListItem, int, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	var listQuery, countQuery string
	switch folder {
	case types.FolderInbox:
		listQuery =
			`SELECT e.id, e.sender_id, e.recipient_id, e.subject, e.body, e.attachment_path, e.attachment_name, e.sent_at, u.full_name
			 FROM emails e
			 JOIN users u ON e.sender_id = u.id
			 WHERE e.recipient_id = $1 AND e.is_deleted_by_recipient = false
			 ORDER BY e.sent_at DESC
			 LIMIT $2 OFFSET $3
			 `
		countQuery =
			`SELECT COUNT(*) FROM emails
			 WHERE recipient_id = $1 AND is_deleted_by_recipient = false
			 `
	case types.FolderOutbox:
		listQuery =
			`SELECT e.id, e.sender_id, e.recipient_id, e.subject, e.body, e.attachment_path, e.attachment_name, e.sent_at, u.full_name
			 FROM emails e
			 JOIN users u ON e.recipient_id = u.id
			 WHERE e.sender_id = $1 AND e.is_deleted_by_sender = false
			 ORDER BY e.sent_at DESC
			 LIMIT $2 OFFSET $3
			 `
		countQuery =
			`SELECT COUNT(*) FROM emails
			 WHERE sender_id = $1 AND is_deleted_by_sender = false
			 `
	default:
		return nil, 0, types.ErrBadRequest
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, handleError(err)
	}

	rows, err := r.db.QueryContext(ctx, listQuery, userID, pageSize, offset)
	if err != nil {
		return nil, 0, handleError(err)
	}
	defer rows.Close()

	items := make([]types.EmailListItem, 0, pageSize)
	for rows.Next() {
		var item types.EmailListItem
		var counterpart string
		if err := rows.Scan(&item.ID, &item.SenderID, &item.RecipientID, &item.Subject, &item.Body,
			&item.AttachmentPath, &item.AttachmentName, &item.SentAt, &counterpart); err != nil {
			return nil, 0, err
		}
		if folder == types.FolderInbox {
			item.SenderName = counterpart
		} else {
			item.RecipientName = counterpart
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

// GetByIDForUser fetches an email only when the requesting user still sees
// it: the sender side with its flag unset, or the recipient side with its
// flag unset. Anything else is ErrNotFound, including a participant who has
// already soft-deleted their side.
func (r *EmailRepository) GetByIDForUser(ctx context.Context, emailID, userID int64) (*types.Email, error) {
	query :=
		`SELECT id, sender_id, recipient_id, subject, body, attachment_path, attachment_name, sent_at, is_deleted_by_sender, is_deleted_by_recipient
		 FROM emails
		 WHERE id = $1 AND (
		     (sender_id = $2 AND is_deleted_by_sender = false) OR
		     (recipient_id = $2 AND is_deleted_by_recipient = false)
		 )
		 `

	return scanEmail(r.db.QueryRowContext(ctx, query, emailID, userID))
}

// GetParticipantForUpdate locks the email row for the duration of the
// enclosing transaction, but only when the user is a participant. The row
// lock serializes concurrent delete attempts against the same id.
func (r *EmailRepository) GetParticipantForUpdate(ctx context.Context, q DBTX, emailID, userID int64) (*types.Email, error) {
	query :=
		`SELECT id, sender_id, recipient_id, subject, body, attachment_path, attachment_name, sent_at, is_deleted_by_sender, is_deleted_by_recipient
		 FROM emails
		 WHERE id = $1 AND (sender_id = $2 OR recipient_id = $2)
		 FOR UPDATE
		 `

	return scanEmail(q.QueryRowContext(ctx, query, emailID, userID))
}

// MarkDeleted sets one side's deletion flag and returns the resulting flag
// state so the caller can decide whether the record is now fully deleted.
func (r *EmailRepository) MarkDeleted(ctx context.Context, q DBTX, emailID int64, bySender bool) (*types.Email, error) {
	column := "is_deleted_by_recipient"
	if bySender {
		column = "is_deleted_by_sender"
	}
	query := fmt.Sprintf(
		`UPDATE emails SET %s = true
		 WHERE id = $1
		 RETURNING id, sender_id, recipient_id, subject, body, attachment_path, attachment_name, sent_at, is_deleted_by_sender, is_deleted_by_recipient
		 `, column)

	return scanEmail(q.QueryRowContext(ctx, query, emailID))
}

// HardDelete irreversibly removes the record. Callers only invoke it once
// both deletion flags are set.
func (r *EmailRepository) HardDelete(ctx context.Context, q DBTX, emailID int64) error {
	query := `DELETE FROM emails WHERE id = $1`

	_, err := q.ExecContext(ctx, query, emailID)
	return handleError(err)
}

func scanEmail(row *sql.Row) (*types.Email, error) {
	email := &types.Email{}
	err := row.Scan(&email.ID, &email.SenderID, &email.RecipientID, &email.Subject, &email.Body,
		&email.AttachmentPath, &email.AttachmentName, &email.SentAt,
		&email.IsDeletedBySender, &email.IsDeletedByRecipient)
	if err != nil {
		return nil, handleError(err)
	}
	return email, nil
}
