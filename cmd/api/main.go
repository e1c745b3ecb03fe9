package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	v1 "github.com/Jordy525/Back-gabonmarquethub2-sub000/cmd/api/router/v1"
	cacheadapter "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/cache/adapter"
	cacheport "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/cache/port"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/database"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/logging"
	queueadapter "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/queue/adapter"
	qport "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/queue/port"
	limitadapter "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/ratelimit/adapter"
	limitport "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/ratelimit/port"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/realtime"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/auth"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/application/task"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/persistence/repository/adapter"
	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/presentation/controller"
)

const (
	sendLimit   = 30  // message sends per user per minute
	typingLimit = 120 // typing signals per user per minute
	rateWindow  = time.Minute
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	logger, err := logging.NewFromEnv()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Connect to the database on startup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	pool, err := database.NewPoolFromEnv(ctx)
	cancel()
	if err != nil {
		logger.Fatalw("failed to connect to database", "err", err)
	}
	defer pool.Close()

	verifier, err := auth.NewVerifierFromEnv()
	if err != nil {
		logger.Fatalw("failed to configure token verification", "err", err)
	}

	// Redis is optional: without it the guard skips caching, throttling falls
	// back to in-process buckets and offline alerts are written synchronously.
	var (
		cache         cacheport.Cache
		limiter       limitport.Limiter
		typingLimiter limitport.Limiter
		queue         qport.Client
	)
	if os.Getenv("REDIS_URL") != "" {
		redisCache, err := cacheadapter.NewRedisAdapter()
		if err != nil {
			logger.Fatalw("failed to connect to redis", "err", err)
		}
		defer func() { _ = redisCache.Close() }()
		cache = redisCache
		limiter = limitadapter.NewRedisLimiter(redisCache.Client(), "rl", sendLimit, rateWindow)
		typingLimiter = limitadapter.NewRedisLimiter(redisCache.Client(), "rl", typingLimit, rateWindow)

		queueClient, err := queueadapter.NewAsynqClientFromEnv()
		if err != nil {
			logger.Fatalw("failed to build queue client", "err", err)
		}
		defer func() { _ = queueClient.Close() }()
		queue = queueClient
	} else {
		limiter = limitadapter.NewMemoryLimiter(sendLimit, rateWindow)
		typingLimiter = limitadapter.NewMemoryLimiter(typingLimit, rateWindow)
	}

	// Realtime state is node-local; the registry owns live sessions, rooms own
	// membership, and the coordinator expires typing indicators.
	registry := realtime.NewRegistry()
	rooms := realtime.NewRooms()
	typing := realtime.NewTypingCoordinator(realtime.DefaultTypingTTL, controller.TypingRelay(rooms))

	// Background worker for offline notifications, sharing the process.
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	if queue != nil {
		server, err := queueadapter.NewAsynqServer()
		if err != nil {
			logger.Fatalw("failed to build queue server", "err", err)
		}
		task.RegisterNotifyOfflineTask(server, adapter.NewPgChatRepository(pool))
		go func() {
			if err := server.Run(workerCtx); err != nil {
				logger.Errorw("queue server stopped", "err", err)
			}
		}()
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	v1.RegisterRoutes(r, v1.Deps{
		Pool:          pool,
		Cache:         cache,
		Queue:         queue,
		Limiter:       limiter,
		TypingLimiter: typingLimiter,
		Registry:      registry,
		Rooms:         rooms,
		Typing:        typing,
		Verifier:      verifier,
		Logger:        logger,
	})

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logger.Infow("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("http server failed", "err", err)
		}
	}()

	// Block until asked to stop, then drain: no new requests, close live
	// sockets, let in-flight handlers and the worker finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infow("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("http shutdown", "err", err)
	}

	typing.Shutdown()
	registry.Close()
	stopWorker()
}
