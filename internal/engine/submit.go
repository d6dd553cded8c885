package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fieldcap/internal/logging"
	"fieldcap/internal/queue"
	"fieldcap/internal/remote"
	"fieldcap/internal/services"
)

// submit runs the three-step submission for a claimed entry: presigned
// upload, record creation, image metadata. Completed steps are persisted so
// a later attempt resumes instead of repeating them.
func (e *Engine) submit(ctx context.Context, entry *queue.Entry) {
	attempt := entry.RetryCount + 1
	ctx = services.WithEntryID(ctx, entry.ID)
	ctx = services.WithAttempt(ctx, attempt)
	ctx = services.WithRequestID(ctx, entry.ID)
	logger := logging.WithContext(ctx, e.logger)

	logger.Info("dispatch started",
		logging.String("supplier", entry.SupplierName),
		logging.Int("attempt", attempt))

	identity, err := e.sessions.Identity(ctx)
	if err != nil {
		e.handleFailure(ctx, logger, entry, err)
		return
	}

	if err := e.performSteps(ctx, logger, entry, identity.OrganizationID, identity.UserID, identity.DeviceID); err != nil {
		e.handleFailure(ctx, logger, entry, err)
		return
	}

	entry.Status = queue.StatusSucceeded
	entry.SetProgress(100)
	entry.ErrorMessage = ""
	entry.NextAttemptAt = nil
	if err := e.store.Update(ctx, entry); err != nil {
		println("DEBUG persist success failed:", err.Error())
		logger.Error("persist success", logging.Error(err))
		return
	}
	e.recordOutcome(true)
	logger.Info("dispatch succeeded",
		logging.String("record_id", entry.RemoteRecordID),
		logging.Int("attempt", attempt))
}

func (e *Engine) performSteps(ctx context.Context, logger *slog.Logger, entry *queue.Entry, orgID, userID, deviceID string) error {
	if !entry.Uploaded {
		location, err := e.client.UploadLocation(ctx, remote.UploadLocationRequest{
			OrgID:       orgID,
			FileName:    entry.FileName(),
			ContentType: entry.ContentType,
		})
		if err != nil {
			return err
		}
		entry.StoragePath = location.StoragePath
		entry.SetProgress(25)
		if err := e.store.Update(ctx, entry); err != nil {
			return err
		}

		image, err := e.store.LoadImage(ctx, entry.ID)
		if err != nil {
			return err
		}
		if err := e.client.UploadBinary(ctx, location, entry.FileName(), entry.ContentType, image); err != nil {
			return err
		}
		entry.Uploaded = true
		entry.SetProgress(60)
		if err := e.store.Update(ctx, entry); err != nil {
			return err
		}
		logger.Debug("binary uploaded", logging.String("storage_path", entry.StoragePath))
	}

	if entry.RemoteRecordID == "" {
		record, err := e.client.CreateRecord(ctx, remote.RecordRequest{
			RequestID:    entry.ID,
			OrgID:        orgID,
			UserID:       userID,
			DeviceID:     deviceID,
			SupplierID:   entry.SupplierID,
			SupplierName: entry.SupplierName,
			ModelID:      entry.ModelID,
			ModelName:    entry.ModelName,
			Price:        entry.Price,
			Currency:     entry.Currency,
			Quantity:     entry.Quantity,
			BatchID:      entry.BatchID,
			StoragePath:  entry.StoragePath,
			CapturedAt:   entry.CreatedAt,
		})
		if err != nil {
			return err
		}
		entry.RemoteRecordID = record.ID
		entry.SetProgress(85)
		if err := e.store.Update(ctx, entry); err != nil {
			return err
		}
	}

	if _, err := e.client.CreateImageMetadata(ctx, remote.ImageMetadataRequest{
		RecordID:    entry.RemoteRecordID,
		StoragePath: entry.StoragePath,
		ContentType: entry.ContentType,
		FileSize:    entry.FileSize,
	}); err != nil {
		return err
	}
	return nil
}

// handleFailure applies the failure policy: authorization problems pause the
// whole engine without consuming retry budget, retryable errors reschedule
// with backoff, everything else fails the entry.
func (e *Engine) handleFailure(ctx context.Context, logger *slog.Logger, entry *queue.Entry, cause error) {
	kind := services.Kind(cause)

	if services.IsAuthorization(cause) || errors.Is(cause, services.ErrConfiguration) {
		e.pauseForAuth(ctx, logger, entry, cause)
		return
	}

	if !services.Retryable(cause) {
		entry.SetFailed(cause.Error())
		if err := e.store.Update(ctx, entry); err != nil {
			logger.Error("persist failure", logging.Error(err))
		}
		e.recordOutcome(false)
		logger.Warn("dispatch rejected",
			logging.String(logging.FieldErrorKind, kind),
			logging.Error(cause))
		e.notifyFailure(ctx, logger, entry, cause)
		return
	}

	e.scheduleRetry(ctx, logger, entry, cause)
}

func (e *Engine) pauseForAuth(ctx context.Context, logger *slog.Logger, entry *queue.Entry, cause error) {
	entry.Status = queue.StatusPending
	entry.SetProgress(0)
	entry.ErrorMessage = ""
	entry.NextAttemptAt = nil
	if err := e.store.Update(ctx, entry); err != nil {
		logger.Error("return entry to pending", logging.Error(err))
	}

	first := e.setAuthRequired()
	logger.Warn("dispatch paused until sign-in",
		logging.String(logging.FieldErrorKind, services.Kind(cause)),
		logging.Error(cause))
	if first {
		if err := e.notifier.NotifyAuthorizationRequired(ctx); err != nil {
			logger.Warn("authorization notification", logging.Error(err))
		}
		e.publishSnapshot(ctx)
	}
}

func (e *Engine) scheduleRetry(ctx context.Context, logger *slog.Logger, entry *queue.Entry, cause error) {
	entry.RetryCount++

	if entry.RetryCount >= e.maxRetries {
		entry.SetFailed(cause.Error())
		if err := e.store.Update(ctx, entry); err != nil {
			logger.Error("persist exhausted entry", logging.Error(err))
		}
		e.recordOutcome(false)
		logger.Error("retry budget exhausted",
			logging.Int("retries", entry.RetryCount),
			logging.String(logging.FieldErrorKind, services.Kind(cause)),
			logging.Error(cause))
		e.notifyFailure(ctx, logger, entry, cause)
		return
	}

	delay := e.backoffDelay(entry.RetryCount)
	next := time.Now().Add(delay).UTC()
	entry.Status = queue.StatusPending
	entry.SetProgress(0)
	entry.ErrorMessage = cause.Error()
	entry.NextAttemptAt = &next
	if err := e.store.Update(ctx, entry); err != nil {
		logger.Error("persist retry schedule", logging.Error(err))
		return
	}
	e.scheduleWake(entry.ID, delay)
	logger.Warn("dispatch retry scheduled",
		logging.Int("retry", entry.RetryCount),
		logging.Duration("delay", delay),
		logging.String(logging.FieldErrorKind, services.Kind(cause)),
		logging.Error(cause))
}

// backoffDelay indexes the fixed backoff table; the last delay repeats when
// retries outnumber the table.
func (e *Engine) backoffDelay(retry int) time.Duration {
	index := retry - 1
	if index < 0 {
		index = 0
	}
	if index >= len(e.backoff) {
		index = len(e.backoff) - 1
	}
	return e.backoff[index]
}

func (e *Engine) notifyFailure(ctx context.Context, logger *slog.Logger, entry *queue.Entry, cause error) {
	if err := e.notifier.NotifyUploadFailed(ctx, entry.SupplierName, cause.Error()); err != nil {
		logger.Warn("failure notification", logging.Error(err))
	}
}
