package controller

import (
	"errors"
	"net/http"

	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/application/usecase"
	chat "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/domain"
)

// statusOf maps use case errors onto HTTP statuses and a client-safe message.
// The same mapping feeds websocket error frames so both surfaces speak one
// error vocabulary. Persistence details never leak to the client.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, chat.ErrConversationNotFound):
		return http.StatusNotFound, "conversation not found"
	case errors.Is(err, chat.ErrMessageNotFound):
		return http.StatusNotFound, "message not found"
	case errors.Is(err, chat.ErrNotParticipant):
		return http.StatusForbidden, "not a participant of this conversation"
	case errors.Is(err, chat.ErrRoleForbidden):
		return http.StatusForbidden, "role not allowed to perform this action"
	case errors.Is(err, chat.ErrSuspendedUser):
		return http.StatusForbidden, "account suspended"
	case errors.Is(err, chat.ErrConversationClosed):
		return http.StatusConflict, "conversation no longer accepts messages"
	case errors.Is(err, usecase.ErrPersistence):
		return http.StatusInternalServerError, "temporary storage failure"
	}
	return http.StatusBadRequest, err.Error()
}
