package services

import "context"

// AttachmentStore is the blob storage contract the mail core depends on.
// Implemented by S3Service; swapped for a stub in tests.
type AttachmentStore interface {
	// Upload stores content under key and returns the stored path.
	Upload(ctx context.Context, key string, content []byte, contentType string) (string, error)
	// Download returns the blob bytes for key.
	Download(ctx context.Context, key string) ([]byte, error)
	// Delete removes the blob. Deleting a missing blob returns ErrNotFound.
	Delete(ctx context.Context, key string) error
}
