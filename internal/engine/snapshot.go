package engine

import (
	"context"
	"time"

	"fieldcap/internal/queue"
)

// Snapshot is a point-in-time view of queue state, pushed to subscribers
// whenever the engine changes something.
type Snapshot struct {
	Pending      int
	Dispatching  int
	Succeeded    int
	Failed       int
	AuthRequired bool
	Taken        time.Time
}

// Subscribe registers for queue state updates. The channel holds the latest
// snapshot only; slow consumers see the freshest state, not every change.
// The returned cancel func must be called to release the subscription.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	e.subsMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	e.subsMu.Unlock()

	cancel := func() {
		e.subsMu.Lock()
		if existing, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(existing)
		}
		e.subsMu.Unlock()
	}
	return ch, cancel
}

func (e *Engine) publishSnapshot(ctx context.Context) {
	e.subsMu.Lock()
	empty := len(e.subs) == 0
	e.subsMu.Unlock()
	if empty {
		return
	}

	stats, err := e.store.Stats(ctx)
	if err != nil {
		return
	}
	snapshot := Snapshot{
		Pending:      stats[queue.StatusPending],
		Dispatching:  stats[queue.StatusDispatching],
		Succeeded:    stats[queue.StatusSucceeded],
		Failed:       stats[queue.StatusFailed],
		AuthRequired: e.AuthRequired(),
		Taken:        time.Now(),
	}

	e.subsMu.Lock()
	for _, ch := range e.subs {
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
	e.subsMu.Unlock()
}
