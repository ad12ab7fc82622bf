package types

import "time"

// NoSubjectPlaceholder is stored when a message is sent without a subject.
const NoSubjectPlaceholder = "(no subject)"

type Folder string

const (
	FolderInbox  Folder = "inbox"
	FolderOutbox Folder = "outbox"
)

// Email is a message between two registered users. Each side owns an
// independent deletion flag: the sender stops seeing the email once
// IsDeletedBySender is set, the recipient once IsDeletedByRecipient is set.
// When both flags are set the record is purged from storage together with
// its attachment blob (best-effort). Flags only ever transition false->true.
type Email struct {
	ID                   int64     `json:"id"`
	SenderID             int64     `json:"senderId"`
	RecipientID          int64     `json:"recipientId"`
	Subject              string    `json:"subject"`
	Body                 string    `json:"body,omitempty"`
	AttachmentPath       string    `json:"attachmentPath,omitempty"`
	AttachmentName       string    `json:"attachmentName,omitempty"`
	SentAt               time.Time `json:"sentAt"`
	IsDeletedBySender    bool      `json:"-"`
	IsDeletedByRecipient bool      `json:"-"`
}

// HasAttachment reports whether the email references a blob in the attachment store.
func (e *Email) HasAttachment() bool {
	return e.AttachmentPath != ""
}

// EmailListItem is an Email joined with the counterpart user's display name,
// as shown in folder listings: the sender's name in the inbox, the
// recipient's name in the outbox.
type EmailListItem struct {
	Email
	SenderName    string `json:"senderName,omitempty"`
	RecipientName string `json:"recipientName,omitempty"`
}
