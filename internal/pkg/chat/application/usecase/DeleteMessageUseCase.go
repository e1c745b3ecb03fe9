package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/domain"
	repository "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/persistence/repository/port"
)

// DeleteMessageInput identifies the message to soft-delete.
type DeleteMessageInput struct {
	ConversationID int64
	MessageID      int64
	RequesterID    int64
}

// DeleteMessageUseCase soft-deletes a message: the row stays for audit, but
// history queries stop returning it. Only the original sender may delete.
type DeleteMessageUseCase struct {
	Guard *AuthorizeConversationUseCase
	Repo  repository.ChatRepository
}

func NewDeleteMessageUseCase(guard *AuthorizeConversationUseCase, repo repository.ChatRepository) *DeleteMessageUseCase {
	return &DeleteMessageUseCase{Guard: guard, Repo: repo}
}

func (uc *DeleteMessageUseCase) Execute(ctx context.Context, in DeleteMessageInput) error {
	if _, err := uc.Guard.Execute(ctx, in.RequesterID, in.ConversationID); err != nil {
		return err
	}

	err := uc.Repo.SoftDeleteMessage(ctx, in.ConversationID, in.MessageID, in.RequesterID)
	if err != nil {
		if errors.Is(err, chat.ErrMessageNotFound) || errors.Is(err, chat.ErrRoleForbidden) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
