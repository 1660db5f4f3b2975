package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"chatwire/internal/core/contracts"
	"chatwire/internal/core/domain"
	"chatwire/pkg/logging"
)

// SendService sends chat messages, preferring the realtime channel and
// falling back to the request/response path when disconnected. The two
// paths never double-insert: realtime sends are confirmed only by the
// inbound echo, while the fallback returns the created message for the
// caller to insert directly.
type SendService struct {
	log      *slog.Logger
	conn     contracts.ConnectionStatus
	registry contracts.Registry
	api      contracts.MessageAPI
}

func NewSendService(
	log *slog.Logger,
	conn contracts.ConnectionStatus,
	registry contracts.Registry,
	api contracts.MessageAPI,
) *SendService {
	return &SendService{
		log:      log,
		conn:     conn,
		registry: registry,
		api:      api,
	}
}

// Send dispatches one message. A nil returned message means the realtime
// publish path was taken (fire-and-forget); a non-nil message came from the
// fallback and must be inserted into local state by the caller. On error
// the caller keeps the draft so the user can retry.
func (s *SendService) Send(ctx context.Context, p domain.SendPayload) (*domain.Message, error) {
	ctx, span := tracer.Start(ctx, "send.message", trace.WithAttributes(
		attribute.String("chat.conv_id", p.ConversationID),
		attribute.String("chat.message_type", string(p.MessageType)),
	))
	defer span.End()

	if p.ConversationID == "" {
		return nil, domain.ErrInvalidConversationID
	}
	if p.MessageType == "" {
		p.MessageType = domain.MessageText
	}

	if s.conn.Connected() {
		body, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encode send payload: %w", err)
		}
		s.registry.Publish(domain.SendDestination, body)
		s.log.InfoContext(ctx, "send - publish - message published",
			logging.Conversation(p.ConversationID))
		return nil, nil
	}

	msg, err := s.api.Create(ctx, p)
	if err != nil {
		span.SetStatus(codes.Error, "fallback create failed")
		s.log.ErrorContext(ctx, "send - fallback - create message failed",
			logging.Conversation(p.ConversationID), logging.Err(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrSendFailed, err)
	}
	s.log.InfoContext(ctx, "send - fallback - message created",
		logging.Conversation(p.ConversationID), logging.MessageID(msg.ID))
	return &msg, nil
}

// SendTyping publishes a typing indicator. Dropped silently when
// disconnected; typing hints have no fallback path.
func (s *SendService) SendTyping(convID string) {
	body, _ := json.Marshal(domain.TypingPayload{ConversationID: convID})
	s.registry.Publish(domain.TypingDestination, body)
}

// SendRead publishes a read receipt for one message.
func (s *SendService) SendRead(convID, messageID string) {
	body, _ := json.Marshal(domain.ReadPayload{
		MessageID:      messageID,
		ConversationID: convID,
	})
	s.registry.Publish(domain.ReadDestination, body)
}
