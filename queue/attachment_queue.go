package queue

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"

	"github.com/lettermail/go-lettermail-server/global"
	"github.com/lettermail/go-lettermail-server/services"
	"github.com/lettermail/go-lettermail-server/types"
)

// AttachmentQueue processes deferred attachment blob removals. Tasks are
// enqueued when the inline best-effort purge after an email hard-delete
// fails, so the store eventually converges without blocking the delete path.
type AttachmentQueue struct {
	store services.AttachmentStore
}

func NewAttachmentQueue(store services.AttachmentStore) *AttachmentQueue {
	if store == nil {
		panic("store cannot be nil")
	}
	return &AttachmentQueue{store: store}
}

// ProcessAttachmentCleanupTask handles a single cleanup task. A missing blob
// counts as success; other failures are returned so asynq retries them with
// backoff.
func (aq *AttachmentQueue) ProcessAttachmentCleanupTask(ctx context.Context, t *asynq.Task) error {
	var cleanup types.AttachmentCleanupTask
	if err := json.Unmarshal(t.Payload(), &cleanup); err != nil {
		global.Logger.Log("error", "invalid cleanup task payload", "error", err.Error())
		// malformed payloads never become processable, drop them
		return nil
	}
	if cleanup.Path == "" {
		return nil
	}

	err := aq.store.Delete(ctx, cleanup.Path)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		global.Logger.Log("warning", "attachment cleanup failed, will retry", "path", cleanup.Path, "error", err.Error())
		return err
	}
	return nil
}
