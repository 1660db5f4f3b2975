package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	ActionSend      = "SEND"
	ActionTyping    = "TYPING"
	ActionRead      = "READ"
	ActionDelivered = "DELIVERED"
)

// Fixed application-level routes on the broker side.
const (
	SendDestination   = "/app/chat.send"
	TypingDestination = "/app/chat.typing"
	ReadDestination   = "/app/chat.read"

	// WSPathSuffix is the upgrade path segment appended exactly once to the
	// configured base URL when deriving the websocket endpoint.
	WSPathSuffix = "/ws"
)

// ConversationTopic is the per-conversation subscription destination.
func ConversationTopic(convID string) string {
	return "/topic/conversations/" + convID
}

type EventKind int

const (
	// EventLegacy is a frame with a missing or unrecognized action field,
	// treated as a SEND for backward compatibility with old senders.
	EventLegacy EventKind = iota
	EventSend
	EventTyping
	EventRead
	EventDelivered
)

func (k EventKind) String() string {
	switch k {
	case EventSend:
		return ActionSend
	case EventTyping:
		return ActionTyping
	case EventRead:
		return ActionRead
	case EventDelivered:
		return ActionDelivered
	default:
		return "LEGACY"
	}
}

// ChatEvent is the parsed form of one inbound frame. The raw payload is
// decoded exactly once at the boundary; past this point nothing is untyped.
type ChatEvent struct {
	Kind           EventKind
	MessageID      string
	ConversationID string
	SenderID       string
	SenderName     string
	// Message is fully populated for EventSend and EventLegacy only.
	Message Message
}

// wireFrame is the JSON body of each broker frame.
type wireFrame struct {
	Action         string        `json:"action,omitempty"`
	ID             string        `json:"id"`
	ConversationID string        `json:"conversationId"`
	SenderID       string        `json:"senderId"`
	SenderName     string        `json:"senderName"`
	SenderAvatar   string        `json:"senderAvatar,omitempty"`
	Content        string        `json:"content"`
	MessageType    MessageType   `json:"messageType"`
	SentAt         time.Time     `json:"sentAt"`
	ReceiptStatus  ReceiptStatus `json:"receiptStatus,omitempty"`
	FileURL        string        `json:"fileUrl,omitempty"`
	FileName       string        `json:"fileName,omitempty"`
	FileSize       int64         `json:"fileSize,omitempty"`
	FileType       string        `json:"fileType,omitempty"`
	ThumbnailURL   string        `json:"thumbnailUrl,omitempty"`
}

// ParseEvent decodes one frame body into a ChatEvent.
func ParseEvent(raw []byte) (ChatEvent, error) {
	var w wireFrame
	if err := json.Unmarshal(raw, &w); err != nil {
		return ChatEvent{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	ev := ChatEvent{
		MessageID:      w.ID,
		ConversationID: w.ConversationID,
		SenderID:       w.SenderID,
		SenderName:     w.SenderName,
	}
	switch w.Action {
	case ActionTyping:
		ev.Kind = EventTyping
		return ev, nil
	case ActionRead:
		ev.Kind = EventRead
		return ev, nil
	case ActionDelivered:
		ev.Kind = EventDelivered
		return ev, nil
	case ActionSend:
		ev.Kind = EventSend
	default:
		ev.Kind = EventLegacy
	}
	ev.Message = w.message()
	return ev, nil
}

func (w wireFrame) message() Message {
	status := w.ReceiptStatus
	if status == "" {
		status = ReceiptSent
	}
	msgType := w.MessageType
	if msgType == "" {
		msgType = MessageText
	}
	return Message{
		ID:             w.ID,
		ConversationID: w.ConversationID,
		SenderID:       w.SenderID,
		SenderName:     w.SenderName,
		SenderAvatar:   w.SenderAvatar,
		Content:        w.Content,
		MessageType:    msgType,
		SentAt:         w.SentAt,
		ReceiptStatus:  status,
		File: FileMeta{
			URL:          w.FileURL,
			Name:         w.FileName,
			Size:         w.FileSize,
			Type:         w.FileType,
			ThumbnailURL: w.ThumbnailURL,
		},
	}
}

// SendPayload is the body published to SendDestination and posted to the
// REST create-message fallback.
type SendPayload struct {
	ConversationID string      `json:"conversationId"`
	Content        string      `json:"content"`
	MessageType    MessageType `json:"messageType"`
	FileURL        string      `json:"fileUrl,omitempty"`
	FileName       string      `json:"fileName,omitempty"`
	FileSize       int64       `json:"fileSize,omitempty"`
	FileType       string      `json:"fileType,omitempty"`
	ThumbnailURL   string      `json:"thumbnailUrl,omitempty"`
}

// TypingPayload is the body published to TypingDestination.
type TypingPayload struct {
	ConversationID string `json:"conversationId"`
}

// ReadPayload is the body published to ReadDestination.
type ReadPayload struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
}
