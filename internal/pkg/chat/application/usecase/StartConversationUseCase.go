package usecase

import (
	"context"
	"fmt"

	chat "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/domain"
	repository "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/persistence/repository/port"
)

// StartConversationInput carries the data to open (or find) a thread with a
// supplier, optionally scoped to a product.
type StartConversationInput struct {
	BuyerID    int64
	BuyerRole  chat.Role
	SupplierID int64
	ProductID  *int64
	Subject    string
}

// StartConversationUseCase opens a buyer→supplier thread with find-or-create
// semantics: a second request for the same (buyer, supplier, product) tuple
// returns the existing conversation instead of erroring.
//
// Only a buyer may initiate contact; suppliers respond within existing
// threads. This is a business-rule invariant enforced here at creation time,
// independent of the per-message access check.
type StartConversationUseCase struct {
	Repo repository.ChatRepository
}

func NewStartConversationUseCase(repo repository.ChatRepository) *StartConversationUseCase {
	return &StartConversationUseCase{Repo: repo}
}

// Execute returns the conversation and whether it was newly created.
func (uc *StartConversationUseCase) Execute(ctx context.Context, in StartConversationInput) (*chat.Conversation, bool, error) {
	if in.BuyerID <= 0 || in.SupplierID <= 0 {
		return nil, false, fmt.Errorf("buyer_id and supplier_id are required")
	}
	if in.BuyerRole != chat.RoleBuyer {
		return nil, false, chat.ErrRoleForbidden
	}
	if in.BuyerID == in.SupplierID {
		return nil, false, fmt.Errorf("a conversation needs two distinct participants")
	}
	if in.ProductID != nil && *in.ProductID <= 0 {
		return nil, false, fmt.Errorf("product_id must be a positive id")
	}

	conv, created, err := uc.Repo.FindOrCreateConversation(ctx, chat.Conversation{
		BuyerID:    in.BuyerID,
		SupplierID: in.SupplierID,
		ProductID:  in.ProductID,
		Subject:    in.Subject,
		Status:     chat.StatusOpen,
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return conv, created, nil
}
