package services

import (
	"context"
	"sync"

	"chatwire/internal/core/contracts"
	"chatwire/internal/core/domain"
)

type fakeStatus struct {
	mu        sync.Mutex
	connected bool
	watchers  []func(bool)
}

func (f *fakeStatus) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeStatus) OnChange(fn func(bool)) contracts.CancelFunc {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watchers = append(f.watchers, fn)
	return func() {}
}

func (f *fakeStatus) set(connected bool) {
	f.mu.Lock()
	f.connected = connected
	watchers := append(([]func(bool))(nil), f.watchers...)
	f.mu.Unlock()
	for _, fn := range watchers {
		fn(connected)
	}
}

type publishCall struct {
	destination string
	body        []byte
}

type fakeRegistry struct {
	mu        sync.Mutex
	published []publishCall
	handlers  map[string]contracts.FrameHandler
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{handlers: make(map[string]contracts.FrameHandler)}
}

func (f *fakeRegistry) Subscribe(destination string, h contracts.FrameHandler) contracts.CancelFunc {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[destination] = h
	return func() {}
}

func (f *fakeRegistry) Publish(destination string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, publishCall{destination: destination, body: body})
}

func (f *fakeRegistry) publishedTo(destination string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.published {
		if p.destination == destination {
			n++
		}
	}
	return n
}

type fakeAPI struct {
	mu         sync.Mutex
	history    []domain.Message
	historyErr error
	created    domain.Message
	createErr  error
	creates    []domain.SendPayload
	readMarks  []string
}

func (f *fakeAPI) History(_ context.Context, _ string) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return append([]domain.Message(nil), f.history...), nil
}

func (f *fakeAPI) Create(_ context.Context, p domain.SendPayload) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, p)
	if f.createErr != nil {
		return domain.Message{}, f.createErr
	}
	return f.created, nil
}

func (f *fakeAPI) MarkRead(_ context.Context, convID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readMarks = append(f.readMarks, convID)
	return nil
}

func (f *fakeAPI) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates)
}
