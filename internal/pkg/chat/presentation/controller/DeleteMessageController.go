package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/auth"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/application/usecase"
)

// DeleteMessageController handles soft deletion of a message by its sender.
type DeleteMessageController struct {
	UC *usecase.DeleteMessageUseCase
}

func NewDeleteMessageController(uc *usecase.DeleteMessageUseCase) *DeleteMessageController {
	return &DeleteMessageController{UC: uc}
}

func (h *DeleteMessageController) Handle() gin.HandlerFunc {
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
		messageID, err := pathID(c, "messageId")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "messageId must be a positive integer"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		if err := h.UC.Execute(ctx, usecase.DeleteMessageInput{
			ConversationID: conversationID,
			MessageID:      messageID,
			RequesterID:    id.UserID,
		}); err != nil {
			status, msg := statusOf(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
