package usecase

import (
	"context"
	"fmt"

	chat "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/domain"
	repository "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/persistence/repository/port"
)

// SendMessageInput carries the data needed to send a new message.
// Content validation and normalization live in chat.NewMessage so every
// delivery path (HTTP and websocket) shares the same rules.
type SendMessageInput struct {
	ConversationID int64
	SenderID       int64
	Body           string
	MsgType        chat.MessageType
	Attachment     *chat.Attachment
}

// SendMessageUseCase persists a message into a conversation the sender is
// authorized for. Closed and archived threads stay readable but refuse new
// messages with chat.ErrConversationClosed.
type SendMessageUseCase struct {
	Guard *AuthorizeConversationUseCase
	Repo  repository.ChatRepository
}

func NewSendMessageUseCase(guard *AuthorizeConversationUseCase, repo repository.ChatRepository) *SendMessageUseCase {
	return &SendMessageUseCase{Guard: guard, Repo: repo}
}

// Execute validates, authorizes and persists the message, returning it with
// the storage-assigned id and timestamp filled in.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	grant, err := uc.Guard.Execute(ctx, in.SenderID, in.ConversationID)
	if err != nil {
		return nil, err
	}
	return uc.ExecuteGranted(ctx, grant, in)
}

// ExecuteGranted persists with an already-issued grant, for callers that need
// the authorized conversation themselves (fanout paths) without a second
// access check.
func (uc *SendMessageUseCase) ExecuteGranted(ctx context.Context, grant Grant, in SendMessageInput) (*chat.Message, error) {
	if grant.ConversationID() != in.ConversationID || grant.GrantedTo() != in.SenderID {
		return nil, chat.ErrNotParticipant
	}
	if !grant.Conversation().AcceptsMessages() {
		return nil, chat.ErrConversationClosed
	}

	msg, err := chat.NewMessage(chat.Message{
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		Body:           in.Body,
		Type:           in.MsgType,
		Attachment:     in.Attachment,
	})
	if err != nil {
		return nil, err
	}

	// Persist letting the database assign id and created_at.
	stored, err := uc.Repo.SaveMessage(ctx, *msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return stored, nil
}
