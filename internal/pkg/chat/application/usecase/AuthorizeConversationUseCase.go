package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cacheport "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/cache/port"
	chat "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/domain"
	repository "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/persistence/repository/port"
)

// Grant is the proof of a successful authorization check. Its fields are
// unexported so only this use case can mint one; RoomMembership accepts it as
// the realtime.AccessGrant it satisfies, which makes joining a room without
// passing the guard structurally impossible.
type Grant struct {
	conversation *chat.Conversation
	userID       int64
}

// Conversation returns the authorized thread.
func (g Grant) Conversation() *chat.Conversation { return g.conversation }

// ConversationID returns the authorized conversation id.
func (g Grant) ConversationID() int64 { return g.conversation.ID }

// GrantedTo returns the user the grant was issued for.
func (g Grant) GrantedTo() int64 { return g.userID }

// AuthorizeConversationUseCase is the single access authority for a
// conversation: both the realtime path (join, send, read receipts) and the
// HTTP history endpoints go through it.
//
// Failure kinds stay distinguishable: chat.ErrConversationNotFound (the
// thread does not exist, 404 semantics) versus chat.ErrNotParticipant (it
// exists but the user may not see it, 403 semantics).
type AuthorizeConversationUseCase struct {
	Repo  repository.ChatRepository
	Cache cacheport.Cache // optional; nil disables caching
	TTL   time.Duration
}

func NewAuthorizeConversationUseCase(repo repository.ChatRepository, cache cacheport.Cache) *AuthorizeConversationUseCase {
	return &AuthorizeConversationUseCase{Repo: repo, Cache: cache, TTL: 30 * time.Second}
}

// Execute authorizes userID against the conversation and returns a grant.
func (uc *AuthorizeConversationUseCase) Execute(ctx context.Context, userID, conversationID int64) (Grant, error) {
	if userID <= 0 || conversationID <= 0 {
		return Grant{}, fmt.Errorf("user_id and conversation_id are required")
	}

	conv, err := uc.loadConversation(ctx, conversationID)
	if err != nil {
		return Grant{}, err
	}
	if !conv.HasParticipant(userID) {
		return Grant{}, chat.ErrNotParticipant
	}
	return Grant{conversation: conv, userID: userID}, nil
}

// Invalidate drops the cached conversation after a lifecycle change.
func (uc *AuthorizeConversationUseCase) Invalidate(ctx context.Context, conversationID int64) {
	if uc.Cache == nil {
		return
	}
	_, _ = uc.Cache.Del(ctx, conversationKey(conversationID))
}

func (uc *AuthorizeConversationUseCase) loadConversation(ctx context.Context, id int64) (*chat.Conversation, error) {
	if uc.Cache != nil {
		if raw, err := uc.Cache.Get(ctx, conversationKey(id)); err == nil {
			var conv chat.Conversation
			if json.Unmarshal([]byte(raw), &conv) == nil && conv.ID == id {
				return &conv, nil
			}
		}
	}

	conv, err := uc.Repo.GetConversation(ctx, id)
	if err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if uc.Cache != nil {
		if raw, err := json.Marshal(conv); err == nil {
			ttl := uc.TTL
			if ttl <= 0 {
				ttl = 30 * time.Second
			}
			_ = uc.Cache.Set(ctx, conversationKey(id), string(raw), ttl)
		}
	}
	return conv, nil
}

func conversationKey(id int64) string {
	return fmt.Sprintf("chat:conversation:%d", id)
}
