package chat

import (
	"errors"
	"time"
)

// Domain-level errors for conversation behaviors
var (
	ErrConversationNotFound = errors.New("chat: conversation not found")
	ErrNotParticipant       = errors.New("chat: user is not a participant in the conversation")
	ErrRoleForbidden        = errors.New("chat: role is not allowed to perform this action")
	ErrConversationClosed   = errors.New("chat: conversation no longer accepts messages")
	ErrSuspendedUser        = errors.New("chat: user account is suspended")
)

// Role is the marketplace role carried by an authenticated identity.
type Role string

const (
	RoleBuyer    Role = "buyer"
	RoleSupplier Role = "supplier"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the closed role enum values.
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSupplier, RoleAdmin:
		return true
	}
	return false
}

// ConversationStatus is the lifecycle state of a conversation.
type ConversationStatus string

const (
	StatusOpen     ConversationStatus = "open"
	StatusClosed   ConversationStatus = "closed"
	StatusArchived ConversationStatus = "archived"
)

// Valid reports whether s is a known status value.
func (s ConversationStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusArchived:
		return true
	}
	return false
}

// Conversation is a two-party buyer/supplier thread, optionally scoped to a product.
//
// A conversation is uniquely identified by the (BuyerID, SupplierID, ProductID)
// tuple; creation is find-or-create and the row is never hard-deleted, only
// closed or archived.
type Conversation struct {
	ID             int64              `db:"id"`
	BuyerID        int64              `db:"buyer_id"`
	SupplierID     int64              `db:"supplier_id"`
	ProductID      *int64             `db:"product_id"`
	Subject        string             `db:"subject"`
	Status         ConversationStatus `db:"status"`
	CreatedAt      time.Time          `db:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at"`
	LastActivityAt time.Time          `db:"last_activity_at"`
}

// HasParticipant tells whether userID is one of the two stored participants.
func (c *Conversation) HasParticipant(userID int64) bool {
	if c == nil {
		return false
	}
	return userID == c.BuyerID || userID == c.SupplierID
}

// Counterpart returns the other participant of the thread. The second return is
// false when userID is not a participant at all.
func (c *Conversation) Counterpart(userID int64) (int64, bool) {
	switch {
	case c == nil:
		return 0, false
	case userID == c.BuyerID:
		return c.SupplierID, true
	case userID == c.SupplierID:
		return c.BuyerID, true
	}
	return 0, false
}

// AcceptsMessages reports whether new messages may be appended. Closed and
// archived conversations stay readable but refuse sends.
func (c *Conversation) AcceptsMessages() bool {
	return c != nil && c.Status == StatusOpen
}

// ConversationSummary is the inbox projection of a conversation: the thread
// itself plus the reader-facing unread counter and last message preview.
type ConversationSummary struct {
	Conversation
	UnreadCount int64  `db:"unread_count"`
	LastMessage string `db:"last_message"`
}
