package services

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chatwire/internal/core/contracts"
	"chatwire/internal/core/domain"
	"chatwire/pkg/logging"
)

var tracer = otel.Tracer("core-services")

// LifecycleManager correlates exactly one transport connection with the
// authentication signal. Every transition out of "authenticated" tears the
// current transport down before a replacement may be created, and every
// connectivity callback is identity-checked against the transport currently
// referenced so a discarded instance can never overwrite newer state.
type LifecycleManager struct {
	log      *slog.Logger
	auth     contracts.AuthSource
	factory  contracts.TransportFactory
	endpoint string

	mu          sync.Mutex
	transport   contracts.Transport
	applied     domain.AuthState
	connected   bool
	watchers    map[int]func(bool)
	nextWatcher int
}

func NewLifecycleManager(
	log *slog.Logger,
	auth contracts.AuthSource,
	factory contracts.TransportFactory,
	endpoint string,
) *LifecycleManager {
	return &LifecycleManager{
		log:      log,
		auth:     auth,
		factory:  factory,
		endpoint: endpoint,
		watchers: make(map[int]func(bool)),
	}
}

// Run consumes authentication updates until ctx is cancelled. Blocking;
// callers run it on its own goroutine.
func (m *LifecycleManager) Run(ctx context.Context) {
	if st := m.auth.Current(); st.Authenticated() {
		m.Apply(ctx, st)
	}
	for {
		select {
		case <-ctx.Done():
			m.teardown()
			return
		case st := <-m.auth.Updates():
			m.Apply(ctx, st)
		}
	}
}

// Apply moves the connection to the state implied by one auth update. A
// state identical to the one already applied is a no-op, so the initial
// snapshot and a queued update carrying the same token cannot bounce the
// transport at startup.
func (m *LifecycleManager) Apply(ctx context.Context, st domain.AuthState) {
	ctx, span := tracer.Start(ctx, "lifecycle.apply", trace.WithAttributes(
		attribute.Bool("auth.authenticated", st.Authenticated()),
	))
	defer span.End()

	m.mu.Lock()
	if st == m.applied && (!st.Authenticated() || m.transport != nil) {
		m.mu.Unlock()
		m.log.DebugContext(ctx, "lifecycle - apply - duplicate auth state ignored")
		return
	}
	m.applied = st
	m.mu.Unlock()

	// Old transport goes first, always; its teardown must not be left to
	// garbage collection timing.
	m.teardown()

	if !st.Authenticated() {
		m.log.InfoContext(ctx, "lifecycle - apply - unauthenticated, transport torn down")
		return
	}

	hooks := contracts.TransportHooks{
		OnConnect:    m.handleConnect,
		OnDisconnect: m.handleDisconnect,
	}
	t := m.factory(m.endpoint, st.Token, hooks)

	m.mu.Lock()
	m.transport = t
	m.mu.Unlock()

	t.Activate()
	m.log.InfoContext(ctx, "lifecycle - apply - transport activated",
		logging.Endpoint(m.endpoint))
}

func (m *LifecycleManager) teardown() {
	m.mu.Lock()
	t := m.transport
	m.transport = nil
	was := m.connected
	m.connected = false
	watchers := m.snapshotLocked()
	m.mu.Unlock()

	if t != nil {
		t.Deactivate()
		m.log.Info("lifecycle - teardown - transport deactivated")
	}
	// The discarded instance's late callbacks fail the identity check from
	// here on, so the flag is flipped exactly once, here.
	if was {
		notify(watchers, false)
	}
}

func (m *LifecycleManager) handleConnect(t contracts.Transport) {
	m.mu.Lock()
	if m.transport != t {
		m.mu.Unlock()
		m.log.Debug("lifecycle - on connect - stale transport ignored")
		return
	}
	m.connected = true
	watchers := m.snapshotLocked()
	m.mu.Unlock()

	m.log.Info("lifecycle - on connect - connected")
	notify(watchers, true)
}

func (m *LifecycleManager) handleDisconnect(t contracts.Transport, err error) {
	m.mu.Lock()
	if m.transport != t {
		m.mu.Unlock()
		m.log.Debug("lifecycle - on disconnect - stale transport ignored")
		return
	}
	was := m.connected
	m.connected = false
	watchers := m.snapshotLocked()
	m.mu.Unlock()

	m.log.Warn("lifecycle - on disconnect - disconnected", logging.Err(err))
	if was {
		notify(watchers, false)
	}
}

// Connected reports whether the current transport has a live connection.
func (m *LifecycleManager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Transport returns the transport of the current session, nil when logged out.
func (m *LifecycleManager) Transport() contracts.Transport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transport
}

// OnChange registers a connectivity observer; the returned cancel detaches it.
func (m *LifecycleManager) OnChange(fn func(connected bool)) contracts.CancelFunc {
	m.mu.Lock()
	id := m.nextWatcher
	m.nextWatcher++
	m.watchers[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.watchers, id)
			m.mu.Unlock()
		})
	}
}

func (m *LifecycleManager) snapshotLocked() []func(bool) {
	out := make([]func(bool), 0, len(m.watchers))
	for _, fn := range m.watchers {
		out = append(out, fn)
	}
	return out
}

func notify(watchers []func(bool), connected bool) {
	for _, fn := range watchers {
		fn(connected)
	}
}
