package controller

import (
	"time"

	chat "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/domain"
)

// Frame type identifiers shared by the websocket protocol. Client-to-server
// types are verbs, server-to-client types are dotted event names.
const (
	frameJoin        = "join"
	frameLeave       = "leave"
	frameTypingStart = "typing_start"
	frameTypingStop  = "typing_stop"
	frameMessage     = "message"
	frameRead        = "read"

	eventConnected  = "connected"
	eventJoined     = "joined"
	eventLeft       = "left"
	eventMessageNew = "message.new"
	eventMessageAck = "message.ack"
	eventTyping     = "typing.update"
	eventRead       = "message.read_receipt"
	eventError      = "error"
)

// inboundFrame is the single envelope for everything a client sends over the
// socket; which fields matter depends on Type.
type inboundFrame struct {
	Type           string           `json:"type"`
	ConversationID int64            `json:"conversation_id,omitempty"`
	Body           string           `json:"body,omitempty"`
	MsgType        chat.MessageType `json:"msg_type,omitempty"`
	Attachment     *chat.Attachment `json:"attachment,omitempty"`
	MessageIDs     []int64          `json:"message_ids,omitempty"`
}

type ackFrame struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversation_id,omitempty"`
	MemberCount    int    `json:"member_count,omitempty"`
	MessageID      int64  `json:"message_id,omitempty"`
}

// errorFrame carries HTTP-style codes so web clients reuse their REST error
// handling. RetryAfterMS is set only on 429.
type errorFrame struct {
	Type         string `json:"type"`
	Code         int    `json:"code"`
	Error        string `json:"error"`
	RetryAfterMS int64  `json:"retry_after_ms,omitempty"`
}

type messageFrame struct {
	Type           string         `json:"type"`
	ConversationID int64          `json:"conversation_id"`
	Message        messagePayload `json:"message"`
}

type typingFrame struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversation_id"`
	UserID         int64  `json:"user_id"`
	Typing         bool   `json:"typing"`
}

type readFrame struct {
	Type           string  `json:"type"`
	ConversationID int64   `json:"conversation_id"`
	ReaderID       int64   `json:"reader_id"`
	MessageIDs     []int64 `json:"message_ids"`
}

type messagePayload struct {
	ID             int64            `json:"id"`
	ConversationID int64            `json:"conversation_id"`
	SenderID       int64            `json:"sender_id"`
	Body           string           `json:"body,omitempty"`
	MsgType        chat.MessageType `json:"msg_type"`
	Attachment     *chat.Attachment `json:"attachment,omitempty"`
	Read           bool             `json:"read"`
	CreatedAt      time.Time        `json:"created_at"`
}

func toPayload(msg chat.Message) messagePayload {
	return messagePayload{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Body:           msg.Body,
		MsgType:        msg.Type,
		Attachment:     msg.Attachment,
		Read:           msg.Read,
		CreatedAt:      msg.CreatedAt,
	}
}
