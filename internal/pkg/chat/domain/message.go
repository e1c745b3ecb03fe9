package chat

import (
	"errors"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// Message validation errors
var (
	ErrEmptyMessage    = errors.New("chat: empty message (no body or attachment)")
	ErrMessageTooLong  = errors.New("chat: message body exceeds the allowed length")
	ErrBadMessageType  = errors.New("chat: unknown message type")
	ErrMessageNotFound = errors.New("chat: message not found")
)

// MaxBodyLen bounds the sanitized message body. Oversized input is rejected
// outright, never truncated.
const MaxBodyLen = 2000

// MessageType tags the content of a message.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
	MessageTypeAudio MessageType = "audio"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile, MessageTypeAudio:
		return true
	}
	return false
}

// Attachment describes a file already uploaded elsewhere; the messaging core
// only carries the descriptor.
type Attachment struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// Message is an immutable log entry in a conversation. Only the Read flag and
// the Deleted marker may change after the row is written.
type Message struct {
	ID             int64       `db:"id"`
	ConversationID int64       `db:"conversation_id"`
	SenderID       int64       `db:"sender_id"`
	Body           string      `db:"body"`
	Type           MessageType `db:"msg_type"`
	Attachment     *Attachment `db:"-"`
	Read           bool        `db:"is_read"`
	Deleted        bool        `db:"is_deleted"`
	CreatedAt      time.Time   `db:"created_at"`
}

// bodyPolicy strips all markup before a body is persisted.
var bodyPolicy = bluemonday.StrictPolicy()

// NewMessage validates and sanitizes an inbound message, returning a value
// ready to persist. The body is trimmed and scrubbed of markup; a message must
// carry a non-empty body unless it transports an attachment.
func NewMessage(m Message) (*Message, error) {
	if m.ConversationID <= 0 || m.SenderID <= 0 {
		return nil, errors.New("chat: conversation_id and sender_id are required")
	}

	if m.Type == "" {
		m.Type = MessageTypeText
	}
	if !m.Type.Valid() {
		return nil, ErrBadMessageType
	}

	body := strings.TrimSpace(m.Body)
	if len(body) > MaxBodyLen {
		return nil, ErrMessageTooLong
	}
	body = strings.TrimSpace(bodyPolicy.Sanitize(body))
	m.Body = body

	if m.Body == "" && m.Attachment == nil {
		return nil, ErrEmptyMessage
	}
	if m.Attachment != nil && strings.TrimSpace(m.Attachment.URL) == "" {
		return nil, errors.New("chat: attachment url is required")
	}

	m.Read = false
	m.Deleted = false
	return &m, nil
}

// Notification is the user-facing alert recorded when a message reaches a
// participant with no live connection.
type Notification struct {
	ID          int64     `db:"id"`
	RecipientID int64     `db:"recipient_id"`
	MessageID   int64     `db:"message_id"`
	Preview     string    `db:"preview"`
	CreatedAt   time.Time `db:"created_at"`
}
