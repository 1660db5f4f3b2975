package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"chatwire/internal/core/domain"
	"chatwire/pkg/logging"
)

// History fetches the stored messages of a conversation, re-sorted
// client-side ascending by sent time.
func (c *Client) History(ctx context.Context, convID string) ([]domain.Message, error) {
	if convID == "" {
		return nil, domain.ErrInvalidConversationID
	}
	raw, err := c.do(ctx, "GET", "/api/messages/"+convID, nil)
	if err != nil {
		return nil, err
	}
	var msgs []domain.Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].SentAt.Before(msgs[j].SentAt)
	})
	c.log.DebugContext(ctx, "rest - history - fetched",
		logging.Conversation(convID))
	return msgs, nil
}

// Create stores a message over the request/response path and returns the
// server-assigned entry.
func (c *Client) Create(ctx context.Context, p domain.SendPayload) (domain.Message, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return domain.Message{}, fmt.Errorf("encode message: %w", err)
	}
	raw, err := c.do(ctx, "POST", "/api/messages", body)
	if err != nil {
		return domain.Message{}, err
	}
	var msg domain.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return domain.Message{}, fmt.Errorf("decode created message: %w", err)
	}
	return msg, nil
}

// MarkRead marks a whole conversation as read for the current user.
func (c *Client) MarkRead(ctx context.Context, convID string) error {
	if convID == "" {
		return domain.ErrInvalidConversationID
	}
	_, err := c.do(ctx, "PUT", "/api/conversations/"+convID+"/read", nil)
	return err
}
