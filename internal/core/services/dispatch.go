package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"chatwire/internal/core/contracts"
	"chatwire/internal/core/domain"
	"chatwire/pkg/logging"
)

type DispatchConfig struct {
	TypingTTL   time.Duration
	ScrollDelay time.Duration
}

// DispatchService applies classified chat events to the local state of one
// open conversation: message upserts with dedup and ordering, in-place
// receipt updates, typing windows, and conversation-list patches.
type DispatchService struct {
	log    *slog.Logger
	api    contracts.MessageAPI
	cache  *ConversationCache
	convID string
	selfID string
	cfg    DispatchConfig

	state  *ConversationState
	typing *TypingTracker

	onUpdate func()
	onScroll func()

	mu          sync.Mutex
	scrollTimer *time.Timer
	closed      bool
}

// DispatchHooks are optional view callbacks; nil hooks are skipped.
type DispatchHooks struct {
	// OnUpdate fires after the message list changed.
	OnUpdate func()
	// OnTyping fires with the active typing set after it changed.
	OnTyping func(active []string)
	// OnScroll fires once per burst of appended messages, after ScrollDelay.
	OnScroll func()
}

func NewDispatchService(
	log *slog.Logger,
	api contracts.MessageAPI,
	cache *ConversationCache,
	convID string,
	selfID string,
	cfg DispatchConfig,
	hooks DispatchHooks,
) (*DispatchService, error) {
	if convID == "" {
		return nil, domain.ErrInvalidConversationID
	}
	return &DispatchService{
		log:      log,
		api:      api,
		cache:    cache,
		convID:   convID,
		selfID:   selfID,
		cfg:      cfg,
		state:    NewConversationState(),
		typing:   NewTypingTracker(cfg.TypingTTL, hooks.OnTyping),
		onUpdate: hooks.OnUpdate,
		onScroll: hooks.OnScroll,
	}, nil
}

// Apply handles one inbound event. Unknown actions were already folded into
// EventLegacy at the parse boundary.
func (s *DispatchService) Apply(ctx context.Context, ev domain.ChatEvent) error {
	ctx, span := tracer.Start(ctx, "dispatch.apply", trace.WithAttributes(
		attribute.String("chat.action", ev.Kind.String()),
		attribute.String("chat.conv_id", s.convID),
	))
	defer span.End()

	switch ev.Kind {
	case domain.EventTyping:
		if ev.SenderID == s.selfID {
			return nil
		}
		s.typing.Touch(ev.SenderName)
		s.log.DebugContext(ctx, "dispatch - apply - typing window extended",
			logging.Conversation(s.convID), slog.String("sender_name", ev.SenderName))

	case domain.EventRead:
		s.applyReceipt(ctx, ev.MessageID, domain.ReceiptRead)

	case domain.EventDelivered:
		s.applyReceipt(ctx, ev.MessageID, domain.ReceiptDelivered)

	default: // SEND and legacy untagged frames
		msg := ev.Message
		if msg.ConversationID == "" {
			msg.ConversationID = s.convID
		}
		replaced := s.state.Upsert(msg)
		s.patchConversation(msg)
		s.scheduleScroll()
		s.notifyUpdate()
		s.log.InfoContext(ctx, "dispatch - apply - message upserted",
			logging.Conversation(s.convID), logging.MessageID(msg.ID),
			slog.Bool("replaced", replaced))
	}
	return nil
}

func (s *DispatchService) applyReceipt(ctx context.Context, messageID string, status domain.ReceiptStatus) {
	if !s.state.ApplyReceipt(messageID, status) {
		// Receipt for a message this view never loaded; nothing to update.
		s.log.DebugContext(ctx, "dispatch - apply - receipt for unknown message",
			logging.Conversation(s.convID), logging.MessageID(messageID))
		return
	}
	s.notifyUpdate()
}

// LoadHistory fetches the stored messages and reconciles them into local
// state (union by ID, local copy wins).
func (s *DispatchService) LoadHistory(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "dispatch.load_history", trace.WithAttributes(
		attribute.String("chat.conv_id", s.convID),
	))
	defer span.End()

	history, err := s.api.History(ctx, s.convID)
	if err != nil {
		span.SetStatus(codes.Error, "history fetch failed")
		s.log.ErrorContext(ctx, "dispatch - load history - fetch failed",
			logging.Conversation(s.convID), logging.Err(err))
		return fmt.Errorf("load history: %w", err)
	}
	if s.state.MergeHistory(history) {
		s.notifyUpdate()
	}
	s.log.InfoContext(ctx, "dispatch - load history - reconciled",
		logging.Conversation(s.convID), slog.Int("fetched", len(history)),
		slog.Int("total", s.state.Len()))
	return nil
}

// MarkRead tells the server the conversation was read and zeroes the local
// unread counter.
func (s *DispatchService) MarkRead(ctx context.Context) error {
	if err := s.api.MarkRead(ctx, s.convID); err != nil {
		s.log.ErrorContext(ctx, "dispatch - mark read - request failed",
			logging.Conversation(s.convID), logging.Err(err))
		return fmt.Errorf("mark read: %w", err)
	}
	zero := 0
	s.cache.Patch(s.convID, domain.ConversationPatch{Unread: &zero})
	return nil
}

// Messages returns a copy of the reconciled message list.
func (s *DispatchService) Messages() []domain.Message {
	return s.state.Messages()
}

// Typing returns the senders currently typing.
func (s *DispatchService) Typing() []string {
	return s.typing.Active()
}

// State exposes the underlying conversation state for direct inserts by the
// send fallback path.
func (s *DispatchService) State() *ConversationState {
	return s.state
}

// Close cancels the pending scroll timer and all typing windows. Called on
// view unmount so no stale timer mutates state afterwards.
func (s *DispatchService) Close() {
	s.mu.Lock()
	s.closed = true
	if s.scrollTimer != nil {
		s.scrollTimer.Stop()
		s.scrollTimer = nil
	}
	s.mu.Unlock()
	s.typing.Stop()
}

func (s *DispatchService) patchConversation(msg domain.Message) {
	preview := msg.Content
	if preview == "" && msg.File.Name != "" {
		preview = msg.File.Name
	}
	zero := 0
	at := msg.SentAt
	s.cache.Patch(s.convID, domain.ConversationPatch{
		LastMessage:   &preview,
		LastMessageAt: &at,
		Unread:        &zero,
	})
}

func (s *DispatchService) scheduleScroll() {
	if s.onScroll == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.scrollTimer != nil {
		s.scrollTimer.Stop()
	}
	s.scrollTimer = time.AfterFunc(s.cfg.ScrollDelay, s.onScroll)
}

func (s *DispatchService) notifyUpdate() {
	if s.onUpdate != nil {
		s.onUpdate()
	}
}
