package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/auth"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/application/usecase"
	chat "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/domain"
)

const requestTimeout = 3 * time.Second

// ConversationController handles the conversation lifecycle endpoints:
// find-or-create, inbox listing and status transitions.
type ConversationController struct {
	StartUC  *usecase.StartConversationUseCase
	ListUC   *usecase.ListConversationsUseCase
	StatusUC *usecase.UpdateStatusUseCase
}

func NewConversationController(
	start *usecase.StartConversationUseCase,
	list *usecase.ListConversationsUseCase,
	status *usecase.UpdateStatusUseCase,
) *ConversationController {
	return &ConversationController{StartUC: start, ListUC: list, StatusUC: status}
}

type createConversationRequest struct {
	SupplierID int64  `json:"supplier_id" binding:"required"`
	ProductID  *int64 `json:"product_id"`
	Subject    string `json:"subject"`
}

// Create opens (or finds) the thread with a supplier. 201 signals a new row,
// 200 an existing one.
func (h *ConversationController) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		var req createConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		conv, created, err := h.StartUC.Execute(ctx, usecase.StartConversationInput{
			BuyerID:    id.UserID,
			BuyerRole:  id.Role,
			SupplierID: req.SupplierID,
			ProductID:  req.ProductID,
			Subject:    req.Subject,
		})
		if err != nil {
			status, msg := statusOf(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		c.JSON(status, conversationBody(conv))
	}
}

// List returns the caller's inbox, most recent activity first.
func (h *ConversationController) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		summaries, err := h.ListUC.Execute(ctx, id.UserID)
		if err != nil {
			status, msg := statusOf(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}

		out := make([]gin.H, 0, len(summaries))
		for i := range summaries {
			s := &summaries[i]
			body := conversationBody(&s.Conversation)
			body["unread_count"] = s.UnreadCount
			body["last_message"] = s.LastMessage
			out = append(out, body)
		}
		c.JSON(http.StatusOK, gin.H{"conversations": out})
	}
}

type updateStatusRequest struct {
	Status chat.ConversationStatus `json:"status" binding:"required"`
}

// UpdateStatus transitions a conversation between open, closed and archived.
func (h *ConversationController) UpdateStatus() gin.HandlerFunc {
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

		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		if err := h.StatusUC.Execute(ctx, usecase.UpdateStatusInput{
			ConversationID: conversationID,
			RequesterID:    id.UserID,
			Status:         req.Status,
		}); err != nil {
			status, msg := statusOf(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": conversationID, "status": req.Status})
	}
}

func conversationBody(conv *chat.Conversation) gin.H {
	return gin.H{
		"id":               conv.ID,
		"buyer_id":         conv.BuyerID,
		"supplier_id":      conv.SupplierID,
		"product_id":       conv.ProductID,
		"subject":          conv.Subject,
		"status":           conv.Status,
		"created_at":       conv.CreatedAt,
		"last_activity_at": conv.LastActivityAt,
	}
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, strconv.ErrSyntax
	}
	return id, nil
}
