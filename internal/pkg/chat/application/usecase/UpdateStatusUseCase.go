package usecase

import (
	"context"
	"fmt"

	chat "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/domain"
	repository "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/persistence/repository/port"
)

// UpdateStatusInput carries a conversation lifecycle transition.
type UpdateStatusInput struct {
	ConversationID int64
	RequesterID    int64
	Status         chat.ConversationStatus
}

// UpdateStatusUseCase transitions a conversation between open, closed and
// archived. Either participant may change the status; the guard cache is
// invalidated so send paths observe the new state immediately.
type UpdateStatusUseCase struct {
	Guard *AuthorizeConversationUseCase
	Repo  repository.ChatRepository
}

func NewUpdateStatusUseCase(guard *AuthorizeConversationUseCase, repo repository.ChatRepository) *UpdateStatusUseCase {
	return &UpdateStatusUseCase{Guard: guard, Repo: repo}
}

func (uc *UpdateStatusUseCase) Execute(ctx context.Context, in UpdateStatusInput) error {
	if !in.Status.Valid() {
		return fmt.Errorf("unknown conversation status %q", in.Status)
	}
	if _, err := uc.Guard.Execute(ctx, in.RequesterID, in.ConversationID); err != nil {
		return err
	}

	if err := uc.Repo.UpdateConversationStatus(ctx, in.ConversationID, in.Status); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	uc.Guard.Invalidate(ctx, in.ConversationID)
	return nil
}
