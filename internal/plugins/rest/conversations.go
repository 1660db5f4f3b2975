package rest

import (
	"context"
	"encoding/json"
	"fmt"

	"chatwire/internal/core/domain"
)

// Conversations fetches the conversation list for the current user.
func (c *Client) Conversations(ctx context.Context) ([]domain.Conversation, error) {
	raw, err := c.do(ctx, "GET", "/api/conversations", nil)
	if err != nil {
		return nil, err
	}
	var convs []domain.Conversation
	if err := json.Unmarshal(raw, &convs); err != nil {
		return nil, fmt.Errorf("decode conversations: %w", err)
	}
	return convs, nil
}
