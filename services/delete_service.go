package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lettermail/go-lettermail-server/global"
	"github.com/lettermail/go-lettermail-server/metrics"
	"github.com/lettermail/go-lettermail-server/repository"
	"github.com/lettermail/go-lettermail-server/types"
)

// DeleteService coordinates the two sided deletion protocol: each participant
// soft-deletes their own side, and the record is purged once both sides are
// gone. All flag reads and writes for one email happen under a row lock
// inside a transaction, so concurrent deletes of the same id serialize and
// exactly one of them observes the both-deleted state.
type DeleteService struct {
	db         *sql.DB
	emailRepo  *repository.EmailRepository
	store      AttachmentStore
	taskClient *asynq.Client
}

func NewDeleteService(emailRepo *repository.EmailRepository, store AttachmentStore, taskClient *asynq.Client) *DeleteService {
	if emailRepo == nil {
		panic("emailRepo cannot be nil")
	}
	return &DeleteService{
		db:         emailRepo.DB(),
		emailRepo:  emailRepo,
		store:      store,
		taskClient: taskClient,
	}
}

// DeleteOne hides the email from the requesting participant and purges the
// record once both sides have deleted it. Non-participants get ErrNotFound
// and cannot distinguish it from a missing record. On a self-send the
// sender flag takes precedence: the first delete hides the outbox copy,
// the second one purges.
func (ds *DeleteService) DeleteOne(ctx context.Context, emailID, userID int64) error {
	var purgedPath string
	err := repository.WithTx(ctx, ds.db, nil, func(ctx context.Context, tx repository.DBTX) error {
		path, err := ds.deleteOneLocked(ctx, tx, emailID, userID)
		if err != nil {
			return err
		}
		purgedPath = path
		return nil
	})
	if err != nil {
		return err
	}
	metrics.EmailsDeletedMetricsCount.Inc()

	if purgedPath != "" {
		metrics.EmailsPurgedMetricsCount.Inc()
		ds.purgeAttachment(ctx, purgedPath)
	}
	return nil
}

// DeleteBulk applies the single-delete logic to every id inside one
// transaction. Ids that do not belong to the requesting user are silently
// skipped; any persistence failure rolls the whole batch back and surfaces
// as ErrTransaction. Attachment purges run after commit and never undo the
// batch.
func (ds *DeleteService) DeleteBulk(ctx context.Context, emailIDs []int64, userID int64) error {
	if len(emailIDs) == 0 {
		return types.ErrBadRequest
	}

	start := time.Now()
	deleted := 0
	purgedPaths := make([]string, 0, len(emailIDs))
	err := repository.WithTx(ctx, ds.db, nil, func(ctx context.Context, tx repository.DBTX) error {
		for _, emailID := range emailIDs {
			path, err := ds.deleteOneLocked(ctx, tx, emailID, userID)
			if err != nil {
				if errors.Is(err, types.ErrNotFound) {
					// not this user's email, skip without failing the batch
					continue
				}
				return err
			}
			deleted++
			if path != "" {
				purgedPaths = append(purgedPaths, path)
			}
		}
		return nil
	})
	if err != nil {
		global.Logger.Log("error", "bulk delete rolled back", "user", userID, "error", err.Error())
		return fmt.Errorf("%w: %v", types.ErrTransaction, err)
	}
	// counted only once the batch has committed
	metrics.EmailsDeletedMetricsCount.Add(float64(deleted))
	metrics.EmailsPurgedMetricsCount.Add(float64(len(purgedPaths)))
	metrics.BulkDeleteProcessingLatency.Observe(float64(time.Since(start).Milliseconds()))

	for _, path := range purgedPaths {
		ds.purgeAttachment(ctx, path)
	}
	return nil
}

// deleteOneLocked runs the per-id read-modify-check-delete sequence against
// the given transaction handle. It returns the attachment path when the
// record was hard-deleted, empty otherwise.
func (ds *DeleteService) deleteOneLocked(ctx context.Context, tx repository.DBTX, emailID, userID int64) (string, error) {
	email, err := ds.emailRepo.GetParticipantForUpdate(ctx, tx, emailID, userID)
	if err != nil {
		return "", err
	}

	// sender branch wins when sender == recipient; once the sender flag is
	// set, the next self-send delete takes the recipient side and purges
	bySender := email.SenderID == userID
	if email.SenderID == email.RecipientID && email.IsDeletedBySender {
		bySender = false
	}

	updated, err := ds.emailRepo.MarkDeleted(ctx, tx, emailID, bySender)
	if err != nil {
		return "", err
	}
	if !updated.IsDeletedBySender || !updated.IsDeletedByRecipient {
		return "", nil
	}

	if err := ds.emailRepo.HardDelete(ctx, tx, emailID); err != nil {
		return "", err
	}
	return updated.AttachmentPath, nil
}

// purgeAttachment removes the blob of a purged email. Failures are logged
// and handed to the cleanup queue; they never surface to the caller because
// an orphaned blob is preferable to an undeletable email row.
func (ds *DeleteService) purgeAttachment(ctx context.Context, path string) {
	if path == "" || ds.store == nil {
		return
	}

	err := ds.store.Delete(ctx, path)
	if err == nil || errors.Is(err, types.ErrNotFound) {
		return
	}
	global.Logger.Log("warning", "failed to delete attachment", "path", path, "error", err.Error())

	if ds.taskClient == nil {
		return
	}
	task, tErr := types.NewAttachmentCleanupTask(&types.AttachmentCleanupTask{Path: path})
	if tErr != nil {
		global.Logger.Log("error", "failed to create cleanup task", "path", path, "error", tErr.Error())
		return
	}
	if _, qErr := ds.taskClient.EnqueueContext(ctx, task); qErr != nil {
		global.Logger.Log("error", "failed to enqueue cleanup task", "path", path, "error", qErr.Error())
	}
}
