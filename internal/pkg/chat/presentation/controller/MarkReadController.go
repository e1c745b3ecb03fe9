package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/realtime"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/auth"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/application/usecase"
)

// MarkReadController handles read receipts over REST. The ids that actually
// flipped are broadcast to the room so the counterpart's client can update
// its checkmarks without polling.
type MarkReadController struct {
	UC    *usecase.MarkReadUseCase
	Rooms *realtime.Rooms
}

func NewMarkReadController(uc *usecase.MarkReadUseCase, rooms *realtime.Rooms) *MarkReadController {
	return &MarkReadController{UC: uc, Rooms: rooms}
}

type markReadRequest struct {
	MessageIDs []int64 `json:"message_ids"` // empty means "everything unread"
}

func (h *MarkReadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		conversationID, err := pathID(c, "conversationId")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId must be a positive integer"})
			return
		}

		// An empty body means "acknowledge everything unread".
		var req markReadRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		changed, err := h.UC.Execute(ctx, usecase.MarkReadInput{
			ConversationID: conversationID,
			ReaderID:       id.UserID,
			MessageIDs:     req.MessageIDs,
		})
		if err != nil {
			status, msg := statusOf(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}

		if len(changed) > 0 {
			if payload, err := json.Marshal(readFrame{
				Type:           eventRead,
				ConversationID: conversationID,
				ReaderID:       id.UserID,
				MessageIDs:     changed,
			}); err == nil {
				h.Rooms.Broadcast(conversationID, payload, id.UserID)
			}
		}
		c.JSON(http.StatusOK, gin.H{"conversation_id": conversationID, "read": changed})
	}
}
