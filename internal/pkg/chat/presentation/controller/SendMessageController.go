package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/auth"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/application/usecase"
	chat "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/domain"
)

// SendMessageController handles the REST send endpoint (one controller per
// endpoint). It goes through the same dispatcher as the websocket path, so a
// message posted over HTTP still reaches live room members instantly.
type SendMessageController struct {
	Dispatcher *MessageDispatcher
}

func NewSendMessageController(d *MessageDispatcher) *SendMessageController {
	return &SendMessageController{Dispatcher: d}
}

// sendMessageRequest is the DTO for the HTTP request body.
type sendMessageRequest struct {
	Body       string           `json:"body"`
	MsgType    chat.MessageType `json:"msg_type"`
	Attachment *chat.Attachment `json:"attachment"`
}

func (h *SendMessageController) Handle() gin.HandlerFunc {
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

		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		msg, err := h.Dispatcher.Dispatch(ctx, usecase.SendMessageInput{
			ConversationID: conversationID,
			SenderID:       id.UserID,
			Body:           req.Body,
			MsgType:        req.MsgType,
			Attachment:     req.Attachment,
		})
		if err != nil {
			status, m := statusOf(err)
			c.JSON(status, gin.H{"error": m})
			return
		}
		c.JSON(http.StatusCreated, toPayload(*msg))
	}
}
