package domain

import (
	"time"
)

type MessageType string

const (
	MessageText   MessageType = "TEXT"
	MessageImage  MessageType = "IMAGE"
	MessageVideo  MessageType = "VIDEO"
	MessageFile   MessageType = "FILE"
	MessageSystem MessageType = "SYSTEM"
)

type ReceiptStatus string

const (
	ReceiptSent      ReceiptStatus = "SENT"
	ReceiptDelivered ReceiptStatus = "DELIVERED"
	ReceiptRead      ReceiptStatus = "READ"
)

// FileMeta carries attachment metadata for IMAGE/VIDEO/FILE messages.
// The upload itself happens out of band; only the resulting URLs travel here.
type FileMeta struct {
	URL          string `json:"fileUrl,omitempty"`
	Name         string `json:"fileName,omitempty"`
	Size         int64  `json:"fileSize,omitempty"`
	Type         string `json:"fileType,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// Message is one chat entry as held client-side. ID is server-assigned and
// unique within a conversation.
type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversationId"`
	SenderID       string        `json:"senderId"`
	SenderName     string        `json:"senderName"`
	SenderAvatar   string        `json:"senderAvatar,omitempty"`
	Content        string        `json:"content"`
	MessageType    MessageType   `json:"messageType"`
	SentAt         time.Time     `json:"sentAt"`
	ReceiptStatus  ReceiptStatus `json:"receiptStatus,omitempty"`
	File           FileMeta      `json:"file,omitempty"`
}

// Conversation is one entry of the conversation-list cache.
type Conversation struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Avatar        string    `json:"avatar,omitempty"`
	Group         bool      `json:"group"`
	LastMessage   string    `json:"lastMessage,omitempty"`
	LastMessageAt time.Time `json:"lastMessageAt,omitempty"`
	Unread        int       `json:"unreadCount"`
}

// ConversationPatch is a partial update of one conversation-list entry.
// Nil fields are left untouched so concurrent unrelated updates survive.
type ConversationPatch struct {
	LastMessage   *string
	LastMessageAt *time.Time
	Unread        *int
}

// AuthStatus mirrors the external authentication signal. Anything other
// than StatusAuthenticated with a non-empty token means "not authenticated".
type AuthStatus string

const (
	StatusAuthenticated   AuthStatus = "authenticated"
	StatusUnauthenticated AuthStatus = "unauthenticated"
)

// AuthState is the reactive (status, token) pair the connection lifecycle
// is keyed off.
type AuthState struct {
	Status AuthStatus
	Token  string
}

func (s AuthState) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.Token != ""
}
