package engine

import (
	"context"
	"fmt"

	"fieldcap/internal/logging"
	"fieldcap/internal/queue"
	"fieldcap/internal/services"
)

// Enqueue admits a capture and wakes the dispatch loop. Validation failures
// leave no trace in the queue.
func (e *Engine) Enqueue(ctx context.Context, params queue.NewCaptureParams) (*queue.Entry, error) {
	if params.Currency == "" {
		params.Currency = e.cfg.Queue.Currency
	}
	entry, err := e.store.NewCapture(ctx, params)
	if err != nil {
		return nil, err
	}
	e.logger.Info("capture enqueued",
		logging.String(logging.FieldEntryID, entry.ID),
		logging.String("supplier", entry.SupplierName))
	e.wakeLoop()
	e.publishSnapshot(ctx)
	return entry, nil
}

// Item returns a single queue entry.
func (e *Engine) Item(ctx context.Context, id string) (*queue.Entry, error) {
	return e.store.GetByID(ctx, id)
}

// Items lists queue entries, optionally filtered by status.
func (e *Engine) Items(ctx context.Context, statuses ...queue.Status) ([]*queue.Entry, error) {
	return e.store.List(ctx, statuses...)
}

// Stats returns per-status queue counts.
func (e *Engine) Stats(ctx context.Context) (map[queue.Status]int, error) {
	return e.store.Stats(ctx)
}

// Health aggregates queue counts for diagnostics.
func (e *Engine) Health(ctx context.Context) (queue.HealthSummary, error) {
	return e.store.Health(ctx)
}

// Retry returns a failed entry to pending with a fresh retry budget.
func (e *Engine) Retry(ctx context.Context, id string) error {
	entry, err := e.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if entry == nil {
		return services.Wrap(services.ErrNotFound, "engine", "retry", fmt.Sprintf("entry %s not found", id), nil)
	}
	if entry.Status != queue.StatusFailed {
		return services.Wrap(services.ErrValidation, "engine", "retry",
			fmt.Sprintf("entry %s is %s, only failed entries can be retried", id, entry.Status), nil)
	}

	if _, err := e.store.RetryFailed(ctx, id); err != nil {
		return err
	}
	e.cancelWake(id)
	e.wakeLoop()
	e.publishSnapshot(ctx)
	return nil
}

// RetryAll returns every failed entry to pending.
func (e *Engine) RetryAll(ctx context.Context) (int64, error) {
	affected, err := e.store.RetryFailed(ctx)
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		e.wakeLoop()
		e.publishSnapshot(ctx)
	}
	return affected, nil
}

// Remove deletes an entry. In-flight entries cannot be removed.
func (e *Engine) Remove(ctx context.Context, id string) error {
	entry, err := e.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if entry == nil {
		return services.Wrap(services.ErrNotFound, "engine", "remove", fmt.Sprintf("entry %s not found", id), nil)
	}
	if entry.Status == queue.StatusDispatching {
		return services.Wrap(services.ErrValidation, "engine", "remove",
			fmt.Sprintf("entry %s is dispatching, wait for it to settle", id), nil)
	}

	e.cancelWake(id)
	if _, err := e.store.Remove(ctx, id); err != nil {
		return err
	}
	e.publishSnapshot(ctx)
	return nil
}

// ClearCompleted removes succeeded entries.
func (e *Engine) ClearCompleted(ctx context.Context) (int64, error) {
	cleared, err := e.store.ClearSucceeded(ctx)
	if err != nil {
		return 0, err
	}
	if cleared > 0 {
		e.publishSnapshot(ctx)
	}
	return cleared, nil
}
