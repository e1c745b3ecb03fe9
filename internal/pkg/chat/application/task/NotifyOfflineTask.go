package task

import (
	"context"
	"encoding/json"
	"time"

	qport "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/queue/port"
	chat "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/domain"
	repository "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/persistence/repository/port"
)

// NotifyOfflineTaskType is the queue task name for recording an offline
// recipient's notification about a new message.
const NotifyOfflineTaskType = "chat:notify_offline"

// NotifyOfflineQueue is the asynq queue the notification tasks land on.
const NotifyOfflineQueue = "notifications"

// NotifyOfflinePayload is the JSON payload transported via the queue. Kept
// decoupled from domain types to avoid tight coupling with JSON tags.
type NotifyOfflinePayload struct {
	MessageID   int64  `json:"messageId"`
	RecipientID int64  `json:"recipientId"`
	Preview     string `json:"preview"`
}

// NewNotifyOfflineTask builds the queue task for a stored message whose
// recipient had no live connection at fanout time.
func NewNotifyOfflineTask(messageID, recipientID int64, preview string) (qport.Task, error) {
	payload, err := json.Marshal(NotifyOfflinePayload{
		MessageID:   messageID,
		RecipientID: recipientID,
		Preview:     preview,
	})
	if err != nil {
		return qport.Task{}, err
	}
	return qport.Task{Type: NotifyOfflineTaskType, Payload: payload}, nil
}

// RegisterNotifyOfflineTask binds the handler to the worker server. The
// repository write is idempotent on (recipient, message), so asynq retries
// after transient failures never duplicate a notification.
func RegisterNotifyOfflineTask(srv qport.Server, repo repository.ChatRepository) {
	srv.Register(NotifyOfflineTaskType, func(ctx context.Context, t qport.Task) error {
		var p NotifyOfflinePayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: do not retry indefinitely
			return err
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		return repo.SaveNotification(ctx, chat.Notification{
			MessageID:   p.MessageID,
			RecipientID: p.RecipientID,
			Preview:     p.Preview,
			CreatedAt:   time.Now(),
		})
	})
}
