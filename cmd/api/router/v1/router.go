package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	cacheport "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/cache/port"
	qport "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/queue/port"
	limitport "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/ratelimit/port"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/realtime"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/auth"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/application/usecase"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/persistence/repository/adapter"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/presentation/controller"
	httpHandler "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/presentation/http"
	useradapter "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/repository/adapter"
)

// Deps carries the infrastructure the composition root constructed. Cache,
// Queue and Limiter may be nil; the chat surface degrades gracefully without
// them.
type Deps struct {
	Pool          *pgxpool.Pool
	Cache         cacheport.Cache
	Queue         qport.Client
	Limiter       limitport.Limiter
	TypingLimiter limitport.Limiter
	Registry      *realtime.Registry
	Rooms         *realtime.Rooms
	Typing        *realtime.TypingCoordinator
	Verifier      *auth.Verifier
	Logger        *zap.SugaredLogger
}

// RegisterRoutes builds the use case graph and mounts all version 1 API
// routes under /api/v1.
func RegisterRoutes(r *gin.Engine, d Deps) {
	repo := adapter.NewPgChatRepository(d.Pool)
	users := useradapter.NewPgUserRepository(d.Pool)

	guard := usecase.NewAuthorizeConversationUseCase(repo, d.Cache)
	send := usecase.NewSendMessageUseCase(guard, repo)
	markRead := usecase.NewMarkReadUseCase(guard, repo)

	dispatcher := controller.NewMessageDispatcher(
		guard, send, repo, d.Rooms, d.Registry, d.Typing, d.Queue, d.Logger)

	socket := controller.NewChatSocketController(
		auth.Resolve(d.Verifier, users),
		guard, markRead, dispatcher,
		d.Registry, d.Rooms, d.Typing,
		d.Limiter, d.TypingLimiter, d.Logger)

	v1 := r.Group("/api/v1")
	httpHandler.RegisterRoutes(v1, httpHandler.Deps{
		Verifier: d.Verifier,
		Users:    users,
		Socket:   socket,
		Conversations: controller.NewConversationController(
			usecase.NewStartConversationUseCase(repo),
			usecase.NewListConversationsUseCase(repo),
			usecase.NewUpdateStatusUseCase(guard, repo),
		),
		GetMessages:   controller.NewGetMessageController(usecase.NewGetMessageUseCase(guard, repo)),
		SendMessage:   controller.NewSendMessageController(dispatcher),
		MarkRead:      controller.NewMarkReadController(markRead, d.Rooms),
		DeleteMessage: controller.NewDeleteMessageController(usecase.NewDeleteMessageUseCase(guard, repo)),
		Limiter:       d.Limiter,
		Logger:        d.Logger,
	})
}
