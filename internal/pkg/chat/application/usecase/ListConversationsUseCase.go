package usecase

import (
	"context"
	"fmt"

	chat "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/domain"
	repository "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/persistence/repository/port"
)

// ListConversationsUseCase returns the caller's inbox: every thread they
// participate in with unread counters and the latest message preview, most
// recent activity first.
type ListConversationsUseCase struct {
	Repo repository.ChatRepository
}

func NewListConversationsUseCase(repo repository.ChatRepository) *ListConversationsUseCase {
	return &ListConversationsUseCase{Repo: repo}
}

func (uc *ListConversationsUseCase) Execute(ctx context.Context, userID int64) ([]chat.ConversationSummary, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("user_id is required")
	}
	summaries, err := uc.Repo.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return summaries, nil
}
