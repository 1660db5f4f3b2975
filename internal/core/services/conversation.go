package services

import (
	"sort"
	"sync"

	"chatwire/internal/core/domain"
)

// ConversationState is the client-held message list for one open
// conversation: unique by message ID, always sorted ascending by sent time.
// It reconciles server-fetched history and realtime deltas additively so a
// background refetch can never revert state the realtime channel already
// advanced.
type ConversationState struct {
	mu       sync.Mutex
	messages []domain.Message
}

func NewConversationState() *ConversationState {
	return &ConversationState{}
}

// Upsert inserts a message, or replaces the entry with the same ID in
// place. Reports whether an existing entry was replaced.
func (s *ConversationState) Upsert(msg domain.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == msg.ID {
			s.messages[i] = msg
			s.sortLocked()
			return true
		}
	}
	s.messages = append(s.messages, msg)
	s.sortLocked()
	return false
}

// ApplyReceipt updates only the receipt status of the matching message.
// No-op when the ID is unknown.
func (s *ConversationState) ApplyReceipt(messageID string, status domain.ReceiptStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			s.messages[i].ReceiptStatus = status
			return true
		}
	}
	return false
}

// MergeHistory reconciles a fetched history page: union by ID, local copy
// wins on conflict. A refetch carrying no unseen ID is ignored entirely, so
// it can never revert realtime updates that raced it. Reports whether
// anything changed.
func (s *ConversationState) MergeHistory(history []domain.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(s.messages))
	for i := range s.messages {
		seen[s.messages[i].ID] = struct{}{}
	}
	var unseen []domain.Message
	for _, msg := range history {
		if _, ok := seen[msg.ID]; !ok {
			unseen = append(unseen, msg)
		}
	}
	if len(unseen) == 0 {
		return false
	}
	s.messages = append(s.messages, unseen...)
	s.sortLocked()
	return true
}

// Messages returns a copy of the current list.
func (s *ConversationState) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *ConversationState) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Stable sort keeps transport arrival order for equal timestamps.
func (s *ConversationState) sortLocked() {
	sort.SliceStable(s.messages, func(i, j int) bool {
		return s.messages[i].SentAt.Before(s.messages[j].SentAt)
	})
}
