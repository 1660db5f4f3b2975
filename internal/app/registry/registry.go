package registry

import (
	"log/slog"
	"sync"

	"chatwire/internal/core/contracts"
	"chatwire/pkg/logging"
)

// ConnectionSource is what the registry needs from the lifecycle manager:
// the shared connected flag and the transport of the current session.
type ConnectionSource interface {
	Connected() bool
	Transport() contracts.Transport
}

// Registry multiplexes subscriptions over the single shared connection.
// Each Subscribe call yields its own independent subscription; destinations
// are not deduplicated. Preconditions failing (no connection) degrade to
// logged no-ops, never errors.
type Registry struct {
	log  *slog.Logger
	conn ConnectionSource
}

func NewRegistry(log *slog.Logger, conn ConnectionSource) *Registry {
	return &Registry{log: log, conn: conn}
}

// Subscribe registers a handler for a destination. When disconnected it
// subscribes nothing and returns an inert cancel; callers must not assume
// subscription success. The returned cancel is idempotent.
func (r *Registry) Subscribe(destination string, h contracts.FrameHandler) contracts.CancelFunc {
	t := r.conn.Transport()
	if t == nil || !r.conn.Connected() {
		r.log.Warn("registry - subscribe - skipped while disconnected",
			logging.Destination(destination))
		return func() {}
	}
	sub, err := t.Subscribe(destination, h)
	if err != nil {
		r.log.Error("registry - subscribe - transport subscribe failed",
			logging.Destination(destination), logging.Err(err))
		return func() {}
	}
	r.log.Info("registry - subscribe - subscription established",
		logging.Destination(destination))

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.Unsubscribe()
			r.log.Info("registry - unsubscribe - subscription cancelled",
				logging.Destination(destination))
		})
	}
}

// Publish sends a body to a destination, fire-and-forget. There is no
// client-side queueing; callers needing guaranteed delivery use the
// request/response fallback instead.
func (r *Registry) Publish(destination string, body []byte) {
	t := r.conn.Transport()
	if t == nil || !r.conn.Connected() {
		r.log.Warn("registry - publish - dropped while disconnected",
			logging.Destination(destination))
		return
	}
	if err := t.Publish(destination, body); err != nil {
		r.log.Error("registry - publish - transport send failed",
			logging.Destination(destination), logging.Err(err))
	}
}
