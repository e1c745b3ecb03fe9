package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	limitport "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/ratelimit/port"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/auth"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/presentation/controller"
	userport "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/repository/port"
)

// Deps bundles the constructed controllers and the cross-cutting pieces the
// chat surface needs. The router only binds them to paths.
type Deps struct {
	Verifier *auth.Verifier
	Users    userport.UserRepository
	Socket   *controller.ChatSocketController

	Conversations *controller.ConversationController
	GetMessages   *controller.GetMessageController
	SendMessage   *controller.SendMessageController
	MarkRead      *controller.MarkReadController
	DeleteMessage *controller.DeleteMessageController

	Limiter limitport.Limiter // optional
	Logger  *zap.SugaredLogger
}

// RegisterRoutes registers the chat endpoints under the given router group.
// The websocket endpoint authenticates during its own handshake; everything
// else sits behind the bearer-token middleware.
func RegisterRoutes(g *gin.RouterGroup, d Deps) {
	// GET /api/v1/chat/ws -> websocket endpoint for realtime traffic
	g.GET("/chat/ws", d.Socket.Handle())

	authed := g.Group("", auth.Middleware(d.Verifier, d.Users, d.Logger))

	// POST /api/v1/conversations -> find-or-create a thread with a supplier
	authed.POST("/conversations", throttle(d.Limiter, "create"), d.Conversations.Create())

	// GET /api/v1/conversations -> the caller's inbox
	authed.GET("/conversations", d.Conversations.List())

	// PATCH /api/v1/conversations/:conversationId/status -> lifecycle transition
	authed.PATCH("/conversations/:conversationId/status", d.Conversations.UpdateStatus())

	// GET /api/v1/conversations/:conversationId/messages -> history page
	authed.GET("/conversations/:conversationId/messages", d.GetMessages.Handle())

	// POST /api/v1/conversations/:conversationId/messages -> send via REST
	authed.POST("/conversations/:conversationId/messages", throttle(d.Limiter, "send"), d.SendMessage.Handle())

	// POST /api/v1/conversations/:conversationId/read -> bulk read receipt
	authed.POST("/conversations/:conversationId/read", d.MarkRead.Handle())

	// DELETE /api/v1/conversations/:conversationId/messages/:messageId -> soft delete
	authed.DELETE("/conversations/:conversationId/messages/:messageId", d.DeleteMessage.Handle())
}

// throttle refuses requests over the per-user budget for the named action
// with a Retry-After hint. A nil limiter disables throttling.
func throttle(l limitport.Limiter, action string) gin.HandlerFunc {
	if l == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		id, ok := auth.IdentityFrom(c)
		if !ok {
			c.Next() // auth middleware will refuse it
			return
		}
		d := l.Allow(c.Request.Context(), fmt.Sprintf("chat:%s:%d", action, id.UserID))
		if !d.Allowed {
			seconds := int(d.RetryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
