package registry

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatwire/internal/core/contracts"
)

type fakeSub struct {
	mu      sync.Mutex
	cancels int
}

func (s *fakeSub) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++
}

func (s *fakeSub) cancelCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancels
}

type fakeTransport struct {
	mu         sync.Mutex
	subs       []*fakeSub
	handlers   map[string][]contracts.FrameHandler
	subErr     error
	published  []string
	publishErr error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{handlers: make(map[string][]contracts.FrameHandler)}
}

func (t *fakeTransport) Activate()   {}
func (t *fakeTransport) Deactivate() {}

func (t *fakeTransport) Subscribe(destination string, h contracts.FrameHandler) (contracts.TransportSubscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subErr != nil {
		return nil, t.subErr
	}
	sub := &fakeSub{}
	t.subs = append(t.subs, sub)
	t.handlers[destination] = append(t.handlers[destination], h)
	return sub, nil
}

func (t *fakeTransport) Publish(destination string, _ []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.published = append(t.published, destination)
	return t.publishErr
}

type fakeSource struct {
	mu        sync.Mutex
	connected bool
	transport contracts.Transport
}

func (s *fakeSource) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *fakeSource) Transport() contracts.Transport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistry_SubscribeAndCancelIdempotent(t *testing.T) {
	transport := newFakeTransport()
	reg := NewRegistry(testLogger(), &fakeSource{connected: true, transport: transport})

	cancel := reg.Subscribe("/topic/conversations/c1", func([]byte) {})
	require.Len(t, transport.subs, 1)

	cancel()
	cancel()
	cancel()
	assert.Equal(t, 1, transport.subs[0].cancelCount(),
		"repeated cancellation must not re-cancel or panic")
}

func TestRegistry_SubscribeWhileDisconnectedIsInertNoOp(t *testing.T) {
	transport := newFakeTransport()
	tests := []struct {
		name   string
		source *fakeSource
	}{
		{name: "flag down", source: &fakeSource{connected: false, transport: transport}},
		{name: "no transport", source: &fakeSource{connected: true, transport: nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry(testLogger(), tt.source)
			cancel := reg.Subscribe("/topic/conversations/c1", func([]byte) {})
			require.NotNil(t, cancel)
			cancel() // inert handle must be safe
			assert.Empty(t, transport.subs)
		})
	}
}

func TestRegistry_SubscribeErrorYieldsInertCancel(t *testing.T) {
	transport := newFakeTransport()
	transport.subErr = errors.New("broker refused")
	reg := NewRegistry(testLogger(), &fakeSource{connected: true, transport: transport})

	cancel := reg.Subscribe("/topic/conversations/c1", func([]byte) {})
	require.NotNil(t, cancel)
	cancel()
}

func TestRegistry_IndependentSubscriptionsPerCall(t *testing.T) {
	transport := newFakeTransport()
	reg := NewRegistry(testLogger(), &fakeSource{connected: true, transport: transport})

	c1 := reg.Subscribe("/topic/conversations/c1", func([]byte) {})
	c2 := reg.Subscribe("/topic/conversations/c1", func([]byte) {})
	require.Len(t, transport.subs, 2, "registry must not deduplicate by destination")

	c1()
	assert.Equal(t, 1, transport.subs[0].cancelCount())
	assert.Equal(t, 0, transport.subs[1].cancelCount(), "sibling subscription cancelled")
	c2()
}

func TestRegistry_PublishDroppedWhileDisconnected(t *testing.T) {
	transport := newFakeTransport()
	reg := NewRegistry(testLogger(), &fakeSource{connected: false, transport: transport})

	reg.Publish("/app/chat.send", []byte(`{}`))
	assert.Empty(t, transport.published)
}

func TestRegistry_PublishWhenConnected(t *testing.T) {
	transport := newFakeTransport()
	reg := NewRegistry(testLogger(), &fakeSource{connected: true, transport: transport})

	reg.Publish("/app/chat.send", []byte(`{}`))
	assert.Equal(t, []string{"/app/chat.send"}, transport.published)
}
