package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"fieldcap/internal/config"
	"fieldcap/internal/logging"
	"fieldcap/internal/notifications"
	"fieldcap/internal/queue"
	"fieldcap/internal/remote"
	"fieldcap/internal/session"
)

// RemoteClient is the slice of the remote API the engine drives. The
// concrete implementation is *remote.Client; tests substitute fakes.
type RemoteClient interface {
	UploadLocation(ctx context.Context, req remote.UploadLocationRequest) (remote.UploadLocation, error)
	UploadBinary(ctx context.Context, location remote.UploadLocation, fileName, contentType string, data []byte) error
	CreateRecord(ctx context.Context, req remote.RecordRequest) (remote.Record, error)
	CreateImageMetadata(ctx context.Context, req remote.ImageMetadataRequest) (remote.ImageMetadata, error)
}

// Engine owns the dispatch loop: it claims ready queue entries, submits them
// to the remote store under bounded concurrency, and applies the retry and
// fail-fast policies.
type Engine struct {
	cfg      *config.Config
	store    *queue.Store
	client   RemoteClient
	sessions session.Provider
	notifier notifications.Service
	logger   *slog.Logger

	concurrency  int
	maxRetries   int
	backoff      []time.Duration
	pollInterval time.Duration

	wake chan struct{}

	timersMu sync.Mutex
	timers   map[string]*time.Timer

	mu           sync.RWMutex
	running      bool
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	authRequired bool

	batchMu        sync.Mutex
	batchActive    bool
	batchStart     time.Time
	batchSucceeded int
	batchFailed    int

	subsMu  sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
}

// New constructs a dispatch engine. notifier may be nil, in which case
// notifications are resolved from the config.
func New(cfg *config.Config, store *queue.Store, client RemoteClient, sessions session.Provider, notifier notifications.Service, logger *slog.Logger) *Engine {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	backoff := make([]time.Duration, 0, len(cfg.Queue.BackoffSeconds))
	for _, seconds := range cfg.Queue.BackoffSeconds {
		backoff = append(backoff, time.Duration(seconds)*time.Second)
	}
	if len(backoff) == 0 {
		backoff = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	}

	concurrency := cfg.Queue.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	pollInterval := time.Duration(cfg.Queue.PollInterval) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	return &Engine{
		cfg:          cfg,
		store:        store,
		client:       client,
		sessions:     sessions,
		notifier:     notifier,
		logger:       logging.NewComponentLogger(logger, "engine"),
		concurrency:  concurrency,
		maxRetries:   cfg.Queue.MaxRetries,
		backoff:      backoff,
		pollInterval: pollInterval,
		wake:         make(chan struct{}, 1),
		timers:       make(map[string]*time.Timer),
		subs:         make(map[int]chan Snapshot),
	}
}

// Start begins background dispatching. Entries left in dispatching by a
// previous run are returned to pending first; re-submission is safe because
// the remote side dedups on the entry id.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return errors.New("engine already running")
	}

	reset, err := e.store.ResetStuckDispatching(ctx)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if reset > 0 {
		e.logger.Info("recovered interrupted dispatches", logging.Int64("entries", reset))
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.running = true
	e.wg.Add(1)
	e.mu.Unlock()

	go e.run(runCtx)
	e.wakeLoop()
	return nil
}

// Stop terminates background dispatching and waits for in-flight uploads to
// finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	cancel := e.cancel
	e.running = false
	e.cancel = nil
	e.mu.Unlock()

	cancel()
	e.wg.Wait()
	e.stopAllTimers()
}

// Running reports whether the dispatch loop is active.
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// AuthRequired reports whether dispatching is paused pending a fresh sign-in.
func (e *Engine) AuthRequired() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.authRequired
}

// ResumeAfterAuth clears the authorization pause and restarts dispatching.
// Call it after the operator has refreshed credentials.
func (e *Engine) ResumeAfterAuth() {
	e.mu.Lock()
	e.authRequired = false
	e.mu.Unlock()
	e.logger.Info("authorization pause cleared")
	e.wakeLoop()
	e.publishSnapshot(context.Background())
}

func (e *Engine) wakeLoop() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Engine) setAuthRequired() bool {
	e.mu.Lock()
	already := e.authRequired
	e.authRequired = true
	e.mu.Unlock()
	return !already
}

func (e *Engine) scheduleWake(id string, delay time.Duration) {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()
	if existing, ok := e.timers[id]; ok {
		existing.Stop()
	}
	e.timers[id] = time.AfterFunc(delay, func() {
		e.timersMu.Lock()
		delete(e.timers, id)
		e.timersMu.Unlock()
		e.wakeLoop()
	})
}

func (e *Engine) cancelWake(id string) {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()
	if timer, ok := e.timers[id]; ok {
		timer.Stop()
		delete(e.timers, id)
	}
}

func (e *Engine) stopAllTimers() {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()
	for id, timer := range e.timers {
		timer.Stop()
		delete(e.timers, id)
	}
}
