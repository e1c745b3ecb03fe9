package usecase

import (
	"context"
	"fmt"

	repository "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/persistence/repository/port"
)

// MarkReadInput carries a read receipt: the reader acknowledges messages in a
// conversation. A nil or empty MessageIDs slice acknowledges everything
// unread addressed to the reader.
type MarkReadInput struct {
	ConversationID int64
	ReaderID       int64
	MessageIDs     []int64
}

// MarkReadUseCase flips unread messages to read in one bulk statement. A
// reader never marks their own messages, and re-acknowledging already-read
// messages is a harmless no-op that returns an empty id list.
type MarkReadUseCase struct {
	Guard *AuthorizeConversationUseCase
	Repo  repository.ChatRepository
}

func NewMarkReadUseCase(guard *AuthorizeConversationUseCase, repo repository.ChatRepository) *MarkReadUseCase {
	return &MarkReadUseCase{Guard: guard, Repo: repo}
}

// Execute returns the ids of messages that actually changed state, which is
// what gets broadcast to the other participant as the read receipt.
func (uc *MarkReadUseCase) Execute(ctx context.Context, in MarkReadInput) ([]int64, error) {
	if _, err := uc.Guard.Execute(ctx, in.ReaderID, in.ConversationID); err != nil {
		return nil, err
	}

	ids, err := uc.Repo.MarkMessagesRead(ctx, in.ConversationID, in.ReaderID, in.MessageIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return ids, nil
}
