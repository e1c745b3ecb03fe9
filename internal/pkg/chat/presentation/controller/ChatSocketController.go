package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	limitport "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/ratelimit/port"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/realtime"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/auth"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/application/usecase"
)

// ChatSocketController handles the websocket endpoint for realtime chat
// traffic: room membership, typing signals, message delivery and read
// receipts, all multiplexed over one connection per device.
type ChatSocketController struct {
	Resolve       func(r *http.Request) (auth.Identity, error)
	Guard         *usecase.AuthorizeConversationUseCase
	MarkRead      *usecase.MarkReadUseCase
	Dispatcher    *MessageDispatcher
	Registry      *realtime.Registry
	Rooms         *realtime.Rooms
	Typing        *realtime.TypingCoordinator
	Limiter       limitport.Limiter // optional, throttles message frames per user
	TypingLimiter limitport.Limiter // optional, throttles typing frames per user
	Logger        *zap.SugaredLogger

	inflightTimeout time.Duration
}

func NewChatSocketController(
	resolve func(r *http.Request) (auth.Identity, error),
	guard *usecase.AuthorizeConversationUseCase,
	markRead *usecase.MarkReadUseCase,
	dispatcher *MessageDispatcher,
	registry *realtime.Registry,
	rooms *realtime.Rooms,
	typing *realtime.TypingCoordinator,
	limiter limitport.Limiter,
	typingLimiter limitport.Limiter,
	logger *zap.SugaredLogger,
) *ChatSocketController {
	return &ChatSocketController{
		Resolve:         resolve,
		Guard:           guard,
		MarkRead:        markRead,
		Dispatcher:      dispatcher,
		Registry:        registry,
		Rooms:           rooms,
		Typing:          typing,
		Limiter:         limiter,
		TypingLimiter:   typingLimiter,
		Logger:          logger,
		inflightTimeout: 5 * time.Second,
	}
}

// TypingRelay builds the coordinator callback that fans typing transitions
// out to room members. The originator never receives their own indicator.
func TypingRelay(rooms *realtime.Rooms) realtime.TypingBroadcast {
	return func(conversationID, userID int64, typing bool) {
		payload, err := json.Marshal(typingFrame{
			Type:           eventTyping,
			ConversationID: conversationID,
			UserID:         userID,
			Typing:         typing,
		})
		if err != nil {
			return
		}
		rooms.Broadcast(conversationID, payload, userID)
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Auth happens via bearer token, not cookies, so cross-origin
		// handshakes carry no ambient credential.
		return true
	},
}

const defaultReadTimeout = 60 * time.Second

// Handle upgrades the HTTP request and processes frames until the client
// disconnects. Authentication failures are refused before the upgrade.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := ctl.Resolve(c.Request)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrSuspended):
				c.JSON(http.StatusForbidden, gin.H{"error": "account suspended"})
			case errors.Is(err, auth.ErrInvalidToken):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing credential"})
			default:
				ctl.Logger.Warnw("socket auth resolve failed", "err", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication unavailable"})
			}
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			return
		}

		conn := realtime.NewConnection(id.UserID, ws)
		conn.Start()
		ctl.Registry.Register(conn)
		defer func() {
			ctl.Rooms.LeaveAll(conn)
			if lastOfUser := ctl.Registry.Unregister(conn); lastOfUser {
				// No device left; retract any typing indicator immediately
				// instead of letting the TTL expire it.
				ctl.Typing.ClearUser(id.UserID)
			}
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		if payload, err := json.Marshal(ackFrame{Type: eventConnected}); err == nil {
			_ = conn.Send(payload)
		}

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
					errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				ctl.Logger.Debugw("socket read ended", "user_id", id.UserID, "err", err)
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, http.StatusBadRequest, "invalid payload", 0)
				continue
			}
			ctl.handleFrame(c.Request.Context(), conn, id, frame)
		}
	}
}

func (ctl *ChatSocketController) handleFrame(parent context.Context, conn realtime.Session, id auth.Identity, frame inboundFrame) {
	if frame.Type != frameMessage && frame.ConversationID <= 0 {
		ctl.replyError(conn, http.StatusBadRequest, "conversation_id is required", 0)
		return
	}

	switch frame.Type {
	case frameJoin:
		ctl.handleJoin(parent, conn, id, frame)
	case frameLeave:
		ctl.Typing.Stop(frame.ConversationID, id.UserID)
		ctl.Rooms.Leave(frame.ConversationID, conn)
		ctl.ack(conn, eventLeft, frame.ConversationID)
	case frameTypingStart:
		ctl.handleTyping(parent, conn, id, frame.ConversationID, true)
	case frameTypingStop:
		ctl.handleTyping(parent, conn, id, frame.ConversationID, false)
	case frameMessage:
		ctl.handleMessage(parent, conn, id, frame)
	case frameRead:
		ctl.handleRead(parent, conn, id, frame)
	default:
		ctl.replyError(conn, http.StatusBadRequest, "unknown frame type", 0)
	}
}

func (ctl *ChatSocketController) handleJoin(parent context.Context, conn realtime.Session, id auth.Identity, frame inboundFrame) {
	ctx, cancel := context.WithTimeout(parent, ctl.inflightTimeout)
	defer cancel()

	grant, err := ctl.Guard.Execute(ctx, id.UserID, frame.ConversationID)
	if err != nil {
		ctl.replyUseCaseError(conn, err)
		return
	}
	ctl.Rooms.Join(grant, conn)
	if payload, err := json.Marshal(ackFrame{
		Type:           eventJoined,
		ConversationID: frame.ConversationID,
		MemberCount:    ctl.Rooms.MemberCount(frame.ConversationID),
	}); err == nil {
		_ = conn.Send(payload)
	}
}

// handleTyping relays typing transitions for joined rooms only; a typing
// signal is not a way to probe conversations the user never joined. Typing
// frames get their own throttle budget: every start/stop churns a timer and
// fans a broadcast out to the room, so they are not free.
func (ctl *ChatSocketController) handleTyping(parent context.Context, conn realtime.Session, id auth.Identity, conversationID int64, typing bool) {
	if !ctl.Rooms.IsMember(conversationID, conn) {
		ctl.replyError(conn, http.StatusForbidden, "join the conversation before typing signals", 0)
		return
	}
	if ctl.TypingLimiter != nil {
		if d := ctl.TypingLimiter.Allow(parent, fmt.Sprintf("chat:typing:%d", id.UserID)); !d.Allowed {
			ctl.replyError(conn, http.StatusTooManyRequests, "typing signals too fast", d.RetryAfter)
			return
		}
	}
	if typing {
		ctl.Typing.Start(conversationID, id.UserID)
	} else {
		ctl.Typing.Stop(conversationID, id.UserID)
	}
}

func (ctl *ChatSocketController) handleMessage(parent context.Context, conn realtime.Session, id auth.Identity, frame inboundFrame) {
	if frame.ConversationID <= 0 {
		ctl.replyError(conn, http.StatusBadRequest, "conversation_id is required", 0)
		return
	}
	ctx, cancel := context.WithTimeout(parent, ctl.inflightTimeout)
	defer cancel()

	if ctl.Limiter != nil {
		if d := ctl.Limiter.Allow(ctx, fmt.Sprintf("chat:send:%d", id.UserID)); !d.Allowed {
			ctl.replyError(conn, http.StatusTooManyRequests, "sending too fast", d.RetryAfter)
			return
		}
	}

	msg, err := ctl.Dispatcher.Dispatch(ctx, usecase.SendMessageInput{
		ConversationID: frame.ConversationID,
		SenderID:       id.UserID,
		Body:           frame.Body,
		MsgType:        frame.MsgType,
		Attachment:     frame.Attachment,
	})
	if err != nil {
		ctl.replyUseCaseError(conn, err)
		return
	}

	// Ack the originating device with the assigned id; the sender's other
	// devices already received the message.new broadcast.
	if payload, err := json.Marshal(ackFrame{
		Type:           eventMessageAck,
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
	}); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *ChatSocketController) handleRead(parent context.Context, conn realtime.Session, id auth.Identity, frame inboundFrame) {
	ctx, cancel := context.WithTimeout(parent, ctl.inflightTimeout)
	defer cancel()

	changed, err := ctl.MarkRead.Execute(ctx, usecase.MarkReadInput{
		ConversationID: frame.ConversationID,
		ReaderID:       id.UserID,
		MessageIDs:     frame.MessageIDs,
	})
	if err != nil {
		ctl.replyUseCaseError(conn, err)
		return
	}
	if len(changed) == 0 {
		return
	}
	if payload, err := json.Marshal(readFrame{
		Type:           eventRead,
		ConversationID: frame.ConversationID,
		ReaderID:       id.UserID,
		MessageIDs:     changed,
	}); err == nil {
		ctl.Rooms.Broadcast(frame.ConversationID, payload, id.UserID)
	}
}

func (ctl *ChatSocketController) ack(conn realtime.Session, event string, conversationID int64) {
	if payload, err := json.Marshal(ackFrame{Type: event, ConversationID: conversationID}); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *ChatSocketController) replyUseCaseError(conn realtime.Session, err error) {
	code, msg := statusOf(err)
	if code == http.StatusInternalServerError {
		ctl.Logger.Errorw("socket frame failed", "err", err)
	}
	ctl.replyError(conn, code, msg, 0)
}

func (ctl *ChatSocketController) replyError(conn realtime.Session, code int, message string, retryAfter time.Duration) {
	frame := errorFrame{Type: eventError, Code: code, Error: message}
	if retryAfter > 0 {
		frame.RetryAfterMS = retryAfter.Milliseconds()
	}
	if payload, err := json.Marshal(frame); err == nil {
		_ = conn.Send(payload)
	}
}
