package messaging

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/shopmall-mcp/internal/logging"
	"github.com/dshills/shopmall-mcp/pkg/types"
)

// DefaultPollInterval is how often a watcher checks for new messages
const DefaultPollInterval = time.Second

// ErrWatcherRunning is returned by Start on a watcher that is already polling
var ErrWatcherRunning = errors.New("watcher already running")

// MessageSource lists messages newer than a given id
type MessageSource interface {
	Since(ctx context.Context, conversationID, afterID int64) ([]*types.Message, error)
}

// Watcher polls one conversation and delivers new messages in batches.
// It can be started again after Stop.
type Watcher struct {
	source         MessageSource
	conversationID int64
	interval       time.Duration
	logger         *slog.Logger

	lastID  atomic.Int64
	updates chan []*types.Message
	running runLock

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher creates a stopped watcher. A non-positive interval uses DefaultPollInterval.
func NewWatcher(source MessageSource, conversationID, afterID int64, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	w := &Watcher{
		source:         source,
		conversationID: conversationID,
		interval:       interval,
		logger:         logging.OrDiscard(logger),
		updates:        make(chan []*types.Message, 1),
	}
	w.lastID.Store(afterID)
	return w
}

// Updates delivers each batch of new messages in id order
func (w *Watcher) Updates() <-chan []*types.Message {
	return w.updates
}

// LastID is the id of the newest message delivered so far
func (w *Watcher) LastID() int64 {
	return w.lastID.Load()
}

// Running reports whether the poll loop is active
func (w *Watcher) Running() bool {
	return w.running.Held()
}

// Start launches the poll loop. It stops when ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if !w.running.TryAcquire() {
		return ErrWatcherRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	w.mu.Lock()
	w.cancel = cancel
	w.done = done
	w.mu.Unlock()

	go func() {
		defer close(done)
		defer w.running.Release()
		w.loop(ctx)
	}()
	return nil
}

// Stop cancels the poll loop and waits for it to exit. Stopping a stopped
// watcher is a no-op.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *Watcher) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		// Poll immediately, then on every tick
		if !w.poll(ctx) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// poll fetches and delivers one batch. It returns false once ctx is done.
func (w *Watcher) poll(ctx context.Context) bool {
	msgs, err := w.source.Since(ctx, w.conversationID, w.lastID.Load())
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		// Transient failures are logged and retried on the next tick
		w.logger.Warn("message poll failed", "conversation_id", w.conversationID, "error", err)
		return true
	}
	if len(msgs) == 0 {
		return true
	}

	select {
	case w.updates <- msgs:
		w.lastID.Store(msgs[len(msgs)-1].ID)
		return true
	case <-ctx.Done():
		return false
	}
}
