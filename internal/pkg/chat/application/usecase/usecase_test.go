package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chat "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/domain"
)

// fakeRepo is an in-memory ChatRepository for exercising the use cases
// without Postgres.
type fakeRepo struct {
	conversations map[int64]*chat.Conversation
	messages      map[int64]*chat.Message
	notifications []chat.Notification

	nextConvID int64
	nextMsgID  int64

	failWith error // when set, every call fails with this error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		conversations: make(map[int64]*chat.Conversation),
		messages:      make(map[int64]*chat.Message),
		nextConvID:    1,
		nextMsgID:     1,
	}
}

func (f *fakeRepo) seedConversation(buyerID, supplierID int64, status chat.ConversationStatus) *chat.Conversation {
	c := &chat.Conversation{
		ID:         f.nextConvID,
		BuyerID:    buyerID,
		SupplierID: supplierID,
		Status:     status,
		CreatedAt:  time.Now(),
	}
	f.conversations[c.ID] = c
	f.nextConvID++
	return c
}

func (f *fakeRepo) GetConversation(_ context.Context, id int64) (*chat.Conversation, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	c, ok := f.conversations[id]
	if !ok {
		return nil, chat.ErrConversationNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) FindOrCreateConversation(_ context.Context, c chat.Conversation) (*chat.Conversation, bool, error) {
	if f.failWith != nil {
		return nil, false, f.failWith
	}
	for _, existing := range f.conversations {
		if existing.BuyerID == c.BuyerID && existing.SupplierID == c.SupplierID && sameProduct(existing.ProductID, c.ProductID) {
			cp := *existing
			return &cp, false, nil
		}
	}
	c.ID = f.nextConvID
	f.nextConvID++
	c.CreatedAt = time.Now()
	c.LastActivityAt = c.CreatedAt
	f.conversations[c.ID] = &c
	cp := c
	return &cp, true, nil
}

func sameProduct(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (f *fakeRepo) ListConversations(_ context.Context, userID int64) ([]chat.ConversationSummary, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []chat.ConversationSummary
	for _, c := range f.conversations {
		if c.HasParticipant(userID) {
			out = append(out, chat.ConversationSummary{Conversation: *c})
		}
	}
	return out, nil
}

func (f *fakeRepo) SaveMessage(_ context.Context, m chat.Message) (*chat.Message, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	c, ok := f.conversations[m.ConversationID]
	if !ok {
		return nil, chat.ErrConversationNotFound
	}
	m.ID = f.nextMsgID
	f.nextMsgID++
	m.CreatedAt = time.Now()
	c.LastActivityAt = m.CreatedAt
	stored := m
	f.messages[m.ID] = &stored
	cp := m
	return &cp, nil
}

func (f *fakeRepo) GetMessagesByConversation(_ context.Context, conversationID int64, limit, offset int) ([]chat.Message, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []chat.Message
	for id := int64(1); id < f.nextMsgID; id++ {
		m, ok := f.messages[id]
		if ok && m.ConversationID == conversationID && !m.Deleted {
			out = append(out, *m)
		}
	}
	_ = limit
	_ = offset
	return out, nil
}

func (f *fakeRepo) MarkMessagesRead(_ context.Context, conversationID, readerID int64, messageIDs []int64) ([]int64, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	wanted := make(map[int64]bool, len(messageIDs))
	for _, id := range messageIDs {
		wanted[id] = true
	}
	var changed []int64
	for id := int64(1); id < f.nextMsgID; id++ {
		m, ok := f.messages[id]
		if !ok || m.ConversationID != conversationID || m.SenderID == readerID || m.Read {
			continue
		}
		if len(messageIDs) > 0 && !wanted[id] {
			continue
		}
		m.Read = true
		changed = append(changed, id)
	}
	return changed, nil
}

func (f *fakeRepo) SoftDeleteMessage(_ context.Context, conversationID, messageID, senderID int64) error {
	if f.failWith != nil {
		return f.failWith
	}
	m, ok := f.messages[messageID]
	if !ok || m.ConversationID != conversationID || m.Deleted {
		return chat.ErrMessageNotFound
	}
	if m.SenderID != senderID {
		return chat.ErrRoleForbidden
	}
	m.Deleted = true
	return nil
}

func (f *fakeRepo) UpdateConversationStatus(_ context.Context, conversationID int64, status chat.ConversationStatus) error {
	if f.failWith != nil {
		return f.failWith
	}
	c, ok := f.conversations[conversationID]
	if !ok {
		return chat.ErrConversationNotFound
	}
	c.Status = status
	return nil
}

func (f *fakeRepo) SaveNotification(_ context.Context, n chat.Notification) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.notifications {
		if existing.RecipientID == n.RecipientID && existing.MessageID == n.MessageID {
			return nil
		}
	}
	f.notifications = append(f.notifications, n)
	return nil
}

func newGuard(repo *fakeRepo) *AuthorizeConversationUseCase {
	return NewAuthorizeConversationUseCase(repo, nil)
}

func TestAuthorizeDistinguishesMissingFromForbidden(t *testing.T) {
	repo := newFakeRepo()
	conv := repo.seedConversation(1, 2, chat.StatusOpen)
	guard := newGuard(repo)

	_, err := guard.Execute(context.Background(), 1, 999)
	assert.ErrorIs(t, err, chat.ErrConversationNotFound)

	_, err = guard.Execute(context.Background(), 3, conv.ID)
	assert.ErrorIs(t, err, chat.ErrNotParticipant)

	grant, err := guard.Execute(context.Background(), 2, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, grant.ConversationID())
	assert.EqualValues(t, 2, grant.GrantedTo())
}

func TestStartConversationIsBuyerOnly(t *testing.T) {
	repo := newFakeRepo()
	uc := NewStartConversationUseCase(repo)

	_, _, err := uc.Execute(context.Background(), StartConversationInput{
		BuyerID: 2, BuyerRole: chat.RoleSupplier, SupplierID: 1,
	})
	assert.ErrorIs(t, err, chat.ErrRoleForbidden)

	_, _, err = uc.Execute(context.Background(), StartConversationInput{
		BuyerID: 1, BuyerRole: chat.RoleBuyer, SupplierID: 1,
	})
	assert.Error(t, err)
}

func TestStartConversationFindOrCreateIsStable(t *testing.T) {
	repo := newFakeRepo()
	uc := NewStartConversationUseCase(repo)
	product := int64(7)

	in := StartConversationInput{
		BuyerID: 1, BuyerRole: chat.RoleBuyer, SupplierID: 2, ProductID: &product,
	}

	first, created, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	// Same pair, different product: a distinct thread.
	other := int64(8)
	in.ProductID = &other
	third, created, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestSendMessagePersistsAndStampsID(t *testing.T) {
	repo := newFakeRepo()
	conv := repo.seedConversation(1, 2, chat.StatusOpen)
	uc := NewSendMessageUseCase(newGuard(repo), repo)

	msg, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID: conv.ID, SenderID: 1, Body: "hello there", MsgType: chat.MessageTypeText,
	})
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)
	assert.Equal(t, "hello there", msg.Body)
	assert.False(t, msg.Read)
}

func TestSendMessageRefusedOnClosedConversation(t *testing.T) {
	repo := newFakeRepo()
	conv := repo.seedConversation(1, 2, chat.StatusClosed)
	uc := NewSendMessageUseCase(newGuard(repo), repo)

	_, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID: conv.ID, SenderID: 1, Body: "anyone?", MsgType: chat.MessageTypeText,
	})
	assert.ErrorIs(t, err, chat.ErrConversationClosed)

	// Reads stay allowed on the same closed thread.
	get := NewGetMessageUseCase(newGuard(repo), repo)
	_, err = get.Execute(context.Background(), GetMessageInput{ConversationID: conv.ID, RequesterID: 1})
	assert.NoError(t, err)
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	repo := newFakeRepo()
	conv := repo.seedConversation(1, 2, chat.StatusOpen)
	uc := NewSendMessageUseCase(newGuard(repo), repo)

	_, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID: conv.ID, SenderID: 3, Body: "let me in", MsgType: chat.MessageTypeText,
	})
	assert.ErrorIs(t, err, chat.ErrNotParticipant)
	assert.Empty(t, repo.messages)
}

func TestSendMessageWrapsRepositoryFailure(t *testing.T) {
	repo := newFakeRepo()
	conv := repo.seedConversation(1, 2, chat.StatusOpen)
	uc := NewSendMessageUseCase(newGuard(repo), repo)
	repo.failWith = errors.New("connection reset")

	_, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID: conv.ID, SenderID: 1, Body: "doomed", MsgType: chat.MessageTypeText,
	})
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestMarkReadSkipsOwnMessagesAndIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	conv := repo.seedConversation(1, 2, chat.StatusOpen)
	send := NewSendMessageUseCase(newGuard(repo), repo)

	mine, err := send.Execute(context.Background(), SendMessageInput{
		ConversationID: conv.ID, SenderID: 1, Body: "from buyer", MsgType: chat.MessageTypeText,
	})
	require.NoError(t, err)
	theirs, err := send.Execute(context.Background(), SendMessageInput{
		ConversationID: conv.ID, SenderID: 2, Body: "from supplier", MsgType: chat.MessageTypeText,
	})
	require.NoError(t, err)

	mark := NewMarkReadUseCase(newGuard(repo), repo)
	changed, err := mark.Execute(context.Background(), MarkReadInput{ConversationID: conv.ID, ReaderID: 1})
	require.NoError(t, err)
	assert.Equal(t, []int64{theirs.ID}, changed)
	assert.NotContains(t, changed, mine.ID)

	// Second acknowledgement changes nothing.
	changed, err = mark.Execute(context.Background(), MarkReadInput{ConversationID: conv.ID, ReaderID: 1})
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestDeleteMessageSenderOnly(t *testing.T) {
	repo := newFakeRepo()
	conv := repo.seedConversation(1, 2, chat.StatusOpen)
	send := NewSendMessageUseCase(newGuard(repo), repo)

	msg, err := send.Execute(context.Background(), SendMessageInput{
		ConversationID: conv.ID, SenderID: 1, Body: "oops", MsgType: chat.MessageTypeText,
	})
	require.NoError(t, err)

	del := NewDeleteMessageUseCase(newGuard(repo), repo)

	err = del.Execute(context.Background(), DeleteMessageInput{ConversationID: conv.ID, MessageID: msg.ID, RequesterID: 2})
	assert.ErrorIs(t, err, chat.ErrRoleForbidden)

	err = del.Execute(context.Background(), DeleteMessageInput{ConversationID: conv.ID, MessageID: msg.ID, RequesterID: 1})
	require.NoError(t, err)

	get := NewGetMessageUseCase(newGuard(repo), repo)
	msgs, err := get.Execute(context.Background(), GetMessageInput{ConversationID: conv.ID, RequesterID: 1})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestUpdateStatusInvalidatesAndRefusesUnknown(t *testing.T) {
	repo := newFakeRepo()
	conv := repo.seedConversation(1, 2, chat.StatusOpen)
	uc := NewUpdateStatusUseCase(newGuard(repo), repo)

	err := uc.Execute(context.Background(), UpdateStatusInput{ConversationID: conv.ID, RequesterID: 1, Status: "frozen"})
	assert.Error(t, err)

	err = uc.Execute(context.Background(), UpdateStatusInput{ConversationID: conv.ID, RequesterID: 2, Status: chat.StatusClosed})
	require.NoError(t, err)
	assert.Equal(t, chat.StatusClosed, repo.conversations[conv.ID].Status)
}
