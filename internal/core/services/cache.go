package services

import (
	"sort"
	"sync"

	"chatwire/internal/core/domain"
)

// ConversationCache is the shared conversation-list cache. The dispatcher
// of the open conversation and the list screen both read it; writes are
// patch-style merges of single entries so concurrent unrelated updates are
// never clobbered.
type ConversationCache struct {
	mu    sync.Mutex
	items map[string]domain.Conversation
}

func NewConversationCache() *ConversationCache {
	return &ConversationCache{
		items: make(map[string]domain.Conversation),
	}
}

// Replace swaps in a freshly fetched conversation list.
func (c *ConversationCache) Replace(list []domain.Conversation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]domain.Conversation, len(list))
	for _, conv := range list {
		c.items[conv.ID] = conv
	}
}

// Patch merges the non-nil fields of p into one entry, creating it if the
// conversation is not cached yet.
func (c *ConversationCache) Patch(convID string, p domain.ConversationPatch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv, ok := c.items[convID]
	if !ok {
		conv = domain.Conversation{ID: convID}
	}
	if p.LastMessage != nil {
		conv.LastMessage = *p.LastMessage
	}
	if p.LastMessageAt != nil {
		conv.LastMessageAt = *p.LastMessageAt
	}
	if p.Unread != nil {
		conv.Unread = *p.Unread
	}
	c.items[convID] = conv
}

func (c *ConversationCache) Get(convID string) (domain.Conversation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv, ok := c.items[convID]
	return conv, ok
}

// List returns the cached conversations, most recently active first.
func (c *ConversationCache) List() []domain.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Conversation, 0, len(c.items))
	for _, conv := range c.items {
		out = append(out, conv)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out
}
