package contracts

import (
	"context"

	"chatwire/internal/core/domain"
)

// MessageAPI is the request/response collaborator used for history fetches
// and as the guaranteed-delivery fallback when the realtime channel is down.
type MessageAPI interface {
	// History returns the stored messages of a conversation, ordered
	// ascending by sent time.
	History(ctx context.Context, convID string) ([]domain.Message, error)
	// Create stores a message server-side and returns the created entry.
	Create(ctx context.Context, p domain.SendPayload) (domain.Message, error)
	// MarkRead marks a whole conversation as read for the current user.
	MarkRead(ctx context.Context, convID string) error
}

// ConversationAPI serves the conversation-list screen.
type ConversationAPI interface {
	Conversations(ctx context.Context) ([]domain.Conversation, error)
}
