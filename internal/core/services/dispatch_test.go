package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatwire/internal/core/domain"
)

func newDispatch(t *testing.T, api *fakeAPI, cache *ConversationCache, hooks DispatchHooks) *DispatchService {
	t.Helper()
	svc, err := NewDispatchService(discardLogger(), api, cache, "c1", "me",
		DispatchConfig{TypingTTL: 50 * time.Millisecond, ScrollDelay: time.Millisecond}, hooks)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func sendEvent(id, content string, sentAt time.Time) domain.ChatEvent {
	return domain.ChatEvent{
		Kind:           domain.EventSend,
		MessageID:      id,
		ConversationID: "c1",
		SenderID:       "u2",
		SenderName:     "Alice",
		Message:        msg(id, sentAt, content),
	}
}

func TestDispatch_SendUpsertsAndPatchesCache(t *testing.T) {
	cache := NewConversationCache()
	svc := newDispatch(t, &fakeAPI{}, cache, DispatchHooks{})
	at := time.Now()

	require.NoError(t, svc.Apply(context.Background(), sendEvent("1", "hi", at)))

	msgs := svc.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Content)

	conv, ok := cache.Get("c1")
	require.True(t, ok)
	assert.Equal(t, "hi", conv.LastMessage)
	assert.True(t, conv.LastMessageAt.Equal(at))
	assert.Zero(t, conv.Unread)
}

func TestDispatch_LegacyFrameTreatedAsSend(t *testing.T) {
	svc := newDispatch(t, &fakeAPI{}, NewConversationCache(), DispatchHooks{})
	ev := sendEvent("1", "old client", time.Now())
	ev.Kind = domain.EventLegacy

	require.NoError(t, svc.Apply(context.Background(), ev))
	assert.Len(t, svc.Messages(), 1)
}

func TestDispatch_ReceiptUpdatesInPlace(t *testing.T) {
	svc := newDispatch(t, &fakeAPI{}, NewConversationCache(), DispatchHooks{})
	at := time.Now()
	require.NoError(t, svc.Apply(context.Background(), sendEvent("1", "hi", at)))

	require.NoError(t, svc.Apply(context.Background(), domain.ChatEvent{
		Kind:      domain.EventRead,
		MessageID: "1",
	}))
	msgs := svc.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.ReceiptRead, msgs[0].ReceiptStatus)

	// Receipt for an unknown id must be a no-op, not an error.
	require.NoError(t, svc.Apply(context.Background(), domain.ChatEvent{
		Kind:      domain.EventDelivered,
		MessageID: "missing",
	}))
	assert.Len(t, svc.Messages(), 1)
}

func TestDispatch_TypingSkipsSelf(t *testing.T) {
	svc := newDispatch(t, &fakeAPI{}, NewConversationCache(), DispatchHooks{})

	require.NoError(t, svc.Apply(context.Background(), domain.ChatEvent{
		Kind:       domain.EventTyping,
		SenderID:   "me",
		SenderName: "Me",
	}))
	assert.Empty(t, svc.Typing())

	require.NoError(t, svc.Apply(context.Background(), domain.ChatEvent{
		Kind:       domain.EventTyping,
		SenderID:   "u2",
		SenderName: "Alice",
	}))
	assert.Equal(t, []string{"Alice"}, svc.Typing())
}

func TestDispatch_HistoryRefetchDoesNotRevertRealtime(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeAPI{history: []domain.Message{
		msg("1", base, "first"),
		msg("2", base.Add(time.Second), "second"),
	}}
	svc := newDispatch(t, api, NewConversationCache(), DispatchHooks{})

	require.NoError(t, svc.LoadHistory(context.Background()))
	require.Len(t, svc.Messages(), 2)

	// Realtime overtakes the stored copy of message 2.
	updated := sendEvent("2", "second (edited)", base.Add(time.Second))
	require.NoError(t, svc.Apply(context.Background(), updated))

	// A background refetch with no newer tail must not clobber it.
	require.NoError(t, svc.LoadHistory(context.Background()))
	msgs := svc.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "second (edited)", msgs[1].Content)
}

func TestDispatch_ScrollScheduledOncePerBurst(t *testing.T) {
	scrolled := make(chan struct{}, 4)
	svc, err := NewDispatchService(discardLogger(), &fakeAPI{}, NewConversationCache(), "c1", "me",
		DispatchConfig{TypingTTL: time.Second, ScrollDelay: 50 * time.Millisecond},
		DispatchHooks{OnScroll: func() { scrolled <- struct{}{} }})
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	at := time.Now()
	require.NoError(t, svc.Apply(context.Background(), sendEvent("1", "a", at)))
	require.NoError(t, svc.Apply(context.Background(), sendEvent("2", "b", at.Add(time.Second))))

	select {
	case <-scrolled:
	case <-time.After(time.Second):
		t.Fatal("scroll callback never fired")
	}
	select {
	case <-scrolled:
		t.Fatal("burst of sends scheduled more than one scroll")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDispatch_RequiresConversationID(t *testing.T) {
	_, err := NewDispatchService(discardLogger(), &fakeAPI{}, NewConversationCache(), "", "me",
		DispatchConfig{TypingTTL: time.Second, ScrollDelay: time.Millisecond}, DispatchHooks{})
	assert.ErrorIs(t, err, domain.ErrInvalidConversationID)
}

func TestDispatch_MarkRead(t *testing.T) {
	api := &fakeAPI{}
	cache := NewConversationCache()
	unread := 3
	cache.Patch("c1", domain.ConversationPatch{Unread: &unread})
	svc := newDispatch(t, api, cache, DispatchHooks{})

	require.NoError(t, svc.MarkRead(context.Background()))
	assert.Equal(t, []string{"c1"}, api.readMarks)
	conv, _ := cache.Get("c1")
	assert.Zero(t, conv.Unread)
}
