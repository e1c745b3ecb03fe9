package usecase

import (
	"context"
	"fmt"

	chat "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/domain"
	repository "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/persistence/repository/port"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// GetMessageInput carries parameters to fetch a history page.
type GetMessageInput struct {
	ConversationID int64
	RequesterID    int64
	Limit          int
	Offset         int
}

// GetMessageUseCase fetches a page of conversation history for a participant.
// History stays readable on closed and archived threads.
type GetMessageUseCase struct {
	Guard *AuthorizeConversationUseCase
	Repo  repository.ChatRepository
}

func NewGetMessageUseCase(guard *AuthorizeConversationUseCase, repo repository.ChatRepository) *GetMessageUseCase {
	return &GetMessageUseCase{Guard: guard, Repo: repo}
}

// Execute returns messages in chronological order honoring limit/offset,
// where offset 0 is the most recent page.
func (uc *GetMessageUseCase) Execute(ctx context.Context, in GetMessageInput) ([]chat.Message, error) {
	if _, err := uc.Guard.Execute(ctx, in.RequesterID, in.ConversationID); err != nil {
		return nil, err
	}

	limit := in.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}

	msgs, err := uc.Repo.GetMessagesByConversation(ctx, in.ConversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}
