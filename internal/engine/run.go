package engine

import (
	"context"
	"sync"
	"time"

	"fieldcap/internal/logging"
	"fieldcap/internal/queue"
)

func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.wake:
		case <-ticker.C:
		}
		e.dispatchWaves(ctx)
	}
}

// dispatchWaves drains the ready backlog in waves of at most concurrency
// entries. Each wave is claimed fully before any upload starts, so the
// number of entries in dispatching never exceeds the limit.
func (e *Engine) dispatchWaves(ctx context.Context) {
	for {
		if ctx.Err() != nil || e.AuthRequired() {
			return
		}

		dispatching, err := e.store.CountByStatus(ctx, queue.StatusDispatching)
		if err != nil {
			e.logger.Error("count dispatching entries", logging.Error(err))
			return
		}
		slots := e.concurrency - dispatching
		if slots <= 0 {
			return
		}

		ready, err := e.store.NextReady(ctx, time.Now(), slots)
		if err != nil {
			e.logger.Error("fetch ready entries", logging.Error(err))
			return
		}
		if len(ready) == 0 {
			e.maybeNotifyDrained(ctx)
			return
		}

		claimed := make([]*queue.Entry, 0, len(ready))
		for _, entry := range ready {
			entry.Status = queue.StatusDispatching
			entry.ErrorMessage = ""
			entry.NextAttemptAt = nil
			if err := e.store.Update(ctx, entry); err != nil {
				e.logger.Error("claim entry", logging.String(logging.FieldEntryID, entry.ID), logging.Error(err))
				continue
			}
			claimed = append(claimed, entry)
		}
		if len(claimed) == 0 {
			return
		}
		e.markBatchActive()
		e.publishSnapshot(ctx)

		var wave sync.WaitGroup
		wave.Add(len(claimed))
		for _, entry := range claimed {
			go func(entry *queue.Entry) {
				defer wave.Done()
				e.submit(ctx, entry)
			}(entry)
		}
		wave.Wait()
		e.publishSnapshot(ctx)
	}
}

func (e *Engine) markBatchActive() {
	e.batchMu.Lock()
	if !e.batchActive {
		e.batchActive = true
		e.batchStart = time.Now()
		e.batchSucceeded = 0
		e.batchFailed = 0
	}
	e.batchMu.Unlock()
}

func (e *Engine) recordOutcome(succeeded bool) {
	e.batchMu.Lock()
	if succeeded {
		e.batchSucceeded++
	} else {
		e.batchFailed++
	}
	e.batchMu.Unlock()
}

// maybeNotifyDrained fires the queue-drained notification once per busy
// period, when nothing is left to dispatch.
func (e *Engine) maybeNotifyDrained(ctx context.Context) {
	dispatching, err := e.store.CountByStatus(ctx, queue.StatusDispatching)
	if err != nil || dispatching > 0 {
		return
	}
	pending, err := e.store.CountByStatus(ctx, queue.StatusPending)
	if err != nil || pending > 0 {
		return
	}

	e.batchMu.Lock()
	active := e.batchActive
	succeeded := e.batchSucceeded
	failed := e.batchFailed
	duration := time.Since(e.batchStart)
	e.batchActive = false
	e.batchMu.Unlock()

	if !active || succeeded+failed == 0 {
		return
	}
	if err := e.notifier.NotifyQueueDrained(ctx, succeeded, failed, duration); err != nil {
		e.logger.Warn("queue drained notification", logging.Error(err))
	}
}
