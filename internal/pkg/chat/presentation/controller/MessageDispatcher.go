package controller

import (
	"context"
	"encoding/json"
	"unicode/utf8"

	"go.uber.org/zap"

	qport "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/queue/port"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/realtime"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/application/task"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/application/usecase"
	chat "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/domain"
	repository "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/persistence/repository/port"
)

const previewRuneLimit = 120

// MessageDispatcher is the single send path shared by the websocket and REST
// controllers: authorize, persist, fan out to the room, cancel the sender's
// typing state, and alert an offline counterpart.
//
// A per-conversation lock serializes persist+fanout, so the order messages are
// stored in is the order every room member receives them in.
type MessageDispatcher struct {
	Guard    *usecase.AuthorizeConversationUseCase
	Send     *usecase.SendMessageUseCase
	Repo     repository.ChatRepository
	Rooms    *realtime.Rooms
	Registry *realtime.Registry
	Typing   *realtime.TypingCoordinator
	Queue    qport.Client // optional; nil falls back to a direct repository write
	Logger   *zap.SugaredLogger

	locks *realtime.KeyedMutex
}

func NewMessageDispatcher(
	guard *usecase.AuthorizeConversationUseCase,
	send *usecase.SendMessageUseCase,
	repo repository.ChatRepository,
	rooms *realtime.Rooms,
	registry *realtime.Registry,
	typing *realtime.TypingCoordinator,
	queue qport.Client,
	logger *zap.SugaredLogger,
) *MessageDispatcher {
	return &MessageDispatcher{
		Guard:    guard,
		Send:     send,
		Repo:     repo,
		Rooms:    rooms,
		Registry: registry,
		Typing:   typing,
		Queue:    queue,
		Logger:   logger,
		locks:    realtime.NewKeyedMutex(),
	}
}

// Dispatch runs the full send pipeline and returns the stored message.
// Delivery is at-most-once per live session; the stored row is the source of
// truth a reconnecting client backfills from.
func (d *MessageDispatcher) Dispatch(ctx context.Context, in usecase.SendMessageInput) (*chat.Message, error) {
	unlock := d.locks.Lock(in.ConversationID)
	defer unlock()

	grant, err := d.Guard.Execute(ctx, in.SenderID, in.ConversationID)
	if err != nil {
		return nil, err
	}
	msg, err := d.Send.ExecuteGranted(ctx, grant, in)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(messageFrame{
		Type:           eventMessageNew,
		ConversationID: msg.ConversationID,
		Message:        toPayload(*msg),
	})
	if err == nil {
		// The sender's own sessions get the frame too; it doubles as the ack
		// on secondary devices.
		d.Rooms.Broadcast(msg.ConversationID, payload, 0)
	} else {
		d.Logger.Errorw("encode message frame", "message_id", msg.ID, "err", err)
	}

	// Sending a message implies the author stopped typing.
	d.Typing.Stop(msg.ConversationID, msg.SenderID)

	if recipient, ok := grant.Conversation().Counterpart(msg.SenderID); ok && !d.Registry.IsOnline(recipient) {
		d.notifyOffline(ctx, msg, recipient)
	}
	return msg, nil
}

// notifyOffline records an alert for a recipient with no live session.
// Failures are logged, never surfaced: the message itself is already stored.
func (d *MessageDispatcher) notifyOffline(ctx context.Context, msg *chat.Message, recipientID int64) {
	preview := previewOf(msg)

	if d.Queue != nil {
		t, err := task.NewNotifyOfflineTask(msg.ID, recipientID, preview)
		if err == nil {
			_, err = d.Queue.Enqueue(ctx, t, qport.EnqueueOption{Queue: task.NotifyOfflineQueue, MaxRetry: 5})
		}
		if err == nil {
			return
		}
		d.Logger.Warnw("enqueue offline notification failed, writing directly",
			"message_id", msg.ID, "recipient_id", recipientID, "err", err)
	}

	if err := d.Repo.SaveNotification(ctx, chat.Notification{
		MessageID:   msg.ID,
		RecipientID: recipientID,
		Preview:     preview,
		CreatedAt:   msg.CreatedAt,
	}); err != nil {
		d.Logger.Errorw("save offline notification", "message_id", msg.ID, "recipient_id", recipientID, "err", err)
	}
}

func previewOf(msg *chat.Message) string {
	text := msg.Body
	if text == "" && msg.Attachment != nil {
		text = msg.Attachment.Name
	}
	if utf8.RuneCountInString(text) <= previewRuneLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewRuneLimit])
}
