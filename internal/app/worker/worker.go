package worker

import (
	"context"
	"log/slog"
	"sync"

	"chatwire/internal/core/contracts"
	"chatwire/internal/core/domain"
	"chatwire/pkg/logging"
)

// Dispatch consumes parsed events for one conversation.
type Dispatch interface {
	Apply(ctx context.Context, ev domain.ChatEvent) error
}

// ConversationWorker owns the single live subscription of one open
// conversation view and the loop that drains its frames. Its state machine:
// unsubscribed until (connected, attached), back to unsubscribed on
// connection loss or Detach, and every resubscribe cancels the previous
// subscription first so two live subscriptions never overlap.
type ConversationWorker struct {
	log      *slog.Logger
	conn     contracts.ConnectionStatus
	registry contracts.Registry
	dispatch Dispatch
	convID   string
	bufSize  int

	mu        sync.Mutex
	attached  bool
	unwatch   contracts.CancelFunc
	cancelSub contracts.CancelFunc
	stopLoop  context.CancelFunc
}

func NewConversationWorker(
	log *slog.Logger,
	conn contracts.ConnectionStatus,
	registry contracts.Registry,
	dispatch Dispatch,
	convID string,
	bufSize int,
) *ConversationWorker {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &ConversationWorker{
		log:      log,
		conn:     conn,
		registry: registry,
		dispatch: dispatch,
		convID:   convID,
		bufSize:  bufSize,
	}
}

// Attach starts following connectivity and subscribes as soon as the
// connection allows. Idempotent while attached.
func (w *ConversationWorker) Attach(ctx context.Context) error {
	if w.convID == "" {
		return domain.ErrInvalidConversationID
	}
	w.mu.Lock()
	if w.attached {
		w.mu.Unlock()
		return nil
	}
	w.attached = true
	w.mu.Unlock()

	unwatch := w.conn.OnChange(func(connected bool) {
		if connected {
			w.resubscribe(ctx)
		} else {
			w.unsubscribe()
		}
	})
	w.mu.Lock()
	w.unwatch = unwatch
	w.mu.Unlock()

	w.resubscribe(ctx)
	w.log.Info("worker - attach - conversation view attached",
		logging.Conversation(w.convID))
	return nil
}

// Detach cancels the subscription immediately and synchronously; no
// dangling handler keeps mutating state for an unmounted view.
func (w *ConversationWorker) Detach() {
	w.mu.Lock()
	w.attached = false
	unwatch := w.unwatch
	w.unwatch = nil
	w.teardownLocked()
	w.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}
	w.log.Info("worker - detach - conversation view detached",
		logging.Conversation(w.convID))
}

func (w *ConversationWorker) resubscribe(ctx context.Context) {
	w.mu.Lock()
	// Cancel first, unconditionally: the stale subscription must be gone
	// before its replacement exists.
	w.teardownLocked()
	if !w.attached || !w.conn.Connected() {
		w.mu.Unlock()
		return
	}

	frames := make(chan []byte, w.bufSize)
	loopCtx, cancel := context.WithCancel(ctx)
	w.stopLoop = cancel
	stop := loopCtx.Done()
	w.cancelSub = w.registry.Subscribe(domain.ConversationTopic(w.convID), func(body []byte) {
		select {
		case frames <- body:
		case <-stop:
		}
	})
	w.mu.Unlock()

	go w.run(loopCtx, frames)
}

func (w *ConversationWorker) unsubscribe() {
	w.mu.Lock()
	w.teardownLocked()
	w.mu.Unlock()
}

func (w *ConversationWorker) teardownLocked() {
	if w.cancelSub != nil {
		w.cancelSub()
		w.cancelSub = nil
	}
	if w.stopLoop != nil {
		w.stopLoop()
		w.stopLoop = nil
	}
}

func (w *ConversationWorker) run(ctx context.Context, frames <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw := <-frames:
			_ = w.Process(ctx, raw)
		}
	}
}

// Process parses one frame body and applies it. A malformed payload is
// logged and dropped; the loop and the subscription stay up. Logs through
// the context logger so the caller's attached attrs survive into frame
// handling.
func (w *ConversationWorker) Process(ctx context.Context, raw []byte) error {
	log := logging.FromContext(ctx)
	ev, err := domain.ParseEvent(raw)
	if err != nil {
		log.ErrorContext(ctx, "worker - process frame - malformed payload",
			logging.Conversation(w.convID), logging.Err(err))
		return err
	}
	if err := w.dispatch.Apply(ctx, ev); err != nil {
		log.ErrorContext(ctx, "worker - process frame - apply failed",
			logging.Conversation(w.convID), logging.Err(err))
		return err
	}
	return nil
}
