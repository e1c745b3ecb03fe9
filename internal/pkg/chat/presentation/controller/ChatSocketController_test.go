package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	limitport "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/ratelimit/port"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/realtime"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/auth"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/application/usecase"
	chat "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/domain"
)

// stubLimiter grants a fixed budget, then refuses with a retry hint.
type stubLimiter struct {
	mu     sync.Mutex
	budget int
	keys   []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) limitport.Decision {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	if l.budget > 0 {
		l.budget--
		return limitport.Decision{Allowed: true}
	}
	return limitport.Decision{Allowed: false, RetryAfter: 2 * time.Second}
}

func (s *recordingSession) lastPayload(t *testing.T) []byte {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.payloads)
	return s.payloads[len(s.payloads)-1]
}

func TestTypingFramesAreThrottled(t *testing.T) {
	repo := newDispatchRepo(chat.Conversation{ID: 7, BuyerID: 1, SupplierID: 2, Status: chat.StatusOpen})
	registry := realtime.NewRegistry()
	rooms := realtime.NewRooms()
	typing := realtime.NewTypingCoordinator(time.Minute, TypingRelay(rooms))
	defer typing.Shutdown()
	guard := usecase.NewAuthorizeConversationUseCase(repo, nil)
	lim := &stubLimiter{budget: 2}

	ctl := NewChatSocketController(nil, guard, nil, nil, registry, rooms, typing, nil, lim, zap.NewNop().Sugar())

	sender := &recordingSession{id: "s1", userID: 1}
	registry.Register(sender)
	joinRoom(t, guard, rooms, sender, 7)

	ctx := context.Background()
	id := auth.Identity{UserID: 1, Role: chat.RoleBuyer}

	ctl.handleFrame(ctx, sender, id, inboundFrame{Type: frameTypingStart, ConversationID: 7})
	assert.True(t, typing.ActiveIn(7, 1))
	ctl.handleFrame(ctx, sender, id, inboundFrame{Type: frameTypingStop, ConversationID: 7})
	assert.False(t, typing.ActiveIn(7, 1))

	// budget spent: the third signal is refused and never reaches the coordinator
	ctl.handleFrame(ctx, sender, id, inboundFrame{Type: frameTypingStart, ConversationID: 7})
	assert.False(t, typing.ActiveIn(7, 1), "an over-budget start must not register typing state")

	var refusal errorFrame
	require.NoError(t, json.Unmarshal(sender.lastPayload(t), &refusal))
	assert.Equal(t, eventError, refusal.Type)
	assert.Equal(t, http.StatusTooManyRequests, refusal.Code)
	assert.EqualValues(t, 2000, refusal.RetryAfterMS)

	assert.Equal(t, []string{"chat:typing:1", "chat:typing:1", "chat:typing:1"}, lim.keys,
		"typing signals draw from their own bucket, not the send bucket")
}

func TestTypingFramesRequireRoomMembership(t *testing.T) {
	repo := newDispatchRepo(chat.Conversation{ID: 7, BuyerID: 1, SupplierID: 2, Status: chat.StatusOpen})
	registry := realtime.NewRegistry()
	rooms := realtime.NewRooms()
	typing := realtime.NewTypingCoordinator(time.Minute, TypingRelay(rooms))
	defer typing.Shutdown()
	guard := usecase.NewAuthorizeConversationUseCase(repo, nil)
	lim := &stubLimiter{budget: 100}

	ctl := NewChatSocketController(nil, guard, nil, nil, registry, rooms, typing, nil, lim, zap.NewNop().Sugar())

	sender := &recordingSession{id: "s1", userID: 1}
	registry.Register(sender)
	// never joined the room

	ctl.handleFrame(context.Background(), sender, auth.Identity{UserID: 1, Role: chat.RoleBuyer},
		inboundFrame{Type: frameTypingStart, ConversationID: 7})

	assert.False(t, typing.ActiveIn(7, 1))
	var refusal errorFrame
	require.NoError(t, json.Unmarshal(sender.lastPayload(t), &refusal))
	assert.Equal(t, http.StatusForbidden, refusal.Code)
	assert.Empty(t, lim.keys, "the membership check comes before the throttle")
}
