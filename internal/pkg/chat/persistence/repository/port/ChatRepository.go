package repository

import (
	"context"

	chat "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/domain"
)

// ChatRepository defines persistence operations for the messaging core.
//
// Implementations must map "row not found" to chat.ErrConversationNotFound so
// the guard layer can distinguish 404 from 403 semantics.
type ChatRepository interface {
	// GetConversation loads a conversation by primary key.
	GetConversation(ctx context.Context, id int64) (*chat.Conversation, error)

	// FindOrCreateConversation returns the conversation identified by the
	// (buyer, supplier, product) tuple, creating it when absent. The boolean
	// reports whether a new row was created. Concurrent callers racing on the
	// same tuple must converge on a single row via the storage uniqueness
	// constraint.
	FindOrCreateConversation(ctx context.Context, c chat.Conversation) (*chat.Conversation, bool, error)

	// ListConversations returns the threads userID participates in, most
	// recent activity first, with unread counters computed for that user.
	ListConversations(ctx context.Context, userID int64) ([]chat.ConversationSummary, error)

	// SaveMessage persists m and bumps the conversation's last-activity
	// timestamp in the same transaction. Returns the stored message with its
	// server-assigned id and timestamp.
	SaveMessage(ctx context.Context, m chat.Message) (*chat.Message, error)

	// GetMessagesByConversation returns a page of messages in chronological
	// order. Soft-deleted messages are excluded.
	GetMessagesByConversation(ctx context.Context, conversationID int64, limit, offset int) ([]chat.Message, error)

	// MarkMessagesRead flips the read flag on unread messages of the
	// conversation that were NOT authored by readerID. A nil or empty
	// messageIDs slice means "all". Returns the ids that actually changed
	// state, as a single bulk statement.
	MarkMessagesRead(ctx context.Context, conversationID, readerID int64, messageIDs []int64) ([]int64, error)

	// SoftDeleteMessage marks a message deleted. Only the original sender may
	// delete; a mismatch reports chat.ErrRoleForbidden.
	SoftDeleteMessage(ctx context.Context, conversationID, messageID, senderID int64) error

	// UpdateConversationStatus transitions the conversation lifecycle state.
	UpdateConversationStatus(ctx context.Context, conversationID int64, status chat.ConversationStatus) error

	// SaveNotification records a user-facing alert. Saving the same
	// (recipient, message) pair twice is a no-op so queue retries stay safe.
	SaveNotification(ctx context.Context, n chat.Notification) error
}
