package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatwire/internal/core/domain"
)

func TestConversationCache_PatchMergesFields(t *testing.T) {
	cache := NewConversationCache()
	cache.Replace([]domain.Conversation{
		{ID: "c1", Name: "Team", Unread: 4},
		{ID: "c2", Name: "Alice"},
	})

	preview := "see you at 5"
	at := time.Now()
	cache.Patch("c1", domain.ConversationPatch{LastMessage: &preview, LastMessageAt: &at})

	conv, ok := cache.Get("c1")
	require.True(t, ok)
	assert.Equal(t, "Team", conv.Name, "unpatched field clobbered")
	assert.Equal(t, 4, conv.Unread, "unpatched field clobbered")
	assert.Equal(t, preview, conv.LastMessage)

	other, _ := cache.Get("c2")
	assert.Empty(t, other.LastMessage, "patch leaked into sibling entry")
}

func TestConversationCache_PatchCreatesMissingEntry(t *testing.T) {
	cache := NewConversationCache()
	zero := 0
	cache.Patch("c9", domain.ConversationPatch{Unread: &zero})

	conv, ok := cache.Get("c9")
	require.True(t, ok)
	assert.Equal(t, "c9", conv.ID)
}

func TestConversationCache_ListMostRecentFirst(t *testing.T) {
	cache := NewConversationCache()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.Replace([]domain.Conversation{
		{ID: "old", LastMessageAt: base},
		{ID: "new", LastMessageAt: base.Add(time.Hour)},
	})

	list := cache.List()
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
}
