package types

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

var (
	QueueTypeAttachmentCleanup = "attachment:cleanup"
)

// AttachmentCleanupTask retries the removal of an attachment blob whose
// inline best-effort delete failed after its owning email was purged.
type AttachmentCleanupTask struct {
	Path string `json:"path" validate:"required"`
}

func NewAttachmentCleanupTask(cleanup *AttachmentCleanupTask) (*asynq.Task, error) {
	payload, err := json.Marshal(cleanup)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(QueueTypeAttachmentCleanup, payload), nil
}
