package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"order_chat/internal/broker"
	"order_chat/internal/config"
	"order_chat/internal/handler"
	"order_chat/internal/hub"
	"order_chat/internal/middleware"
	"order_chat/internal/repository"
	"order_chat/internal/repository/memory"
	"order_chat/internal/service"
	"order_chat/internal/subscriber"
	"order_chat/pkg/jwt"
	"order_chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Log.Level)

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("Server stopped with error", "error", err)
		_ = appLogger.Sync()
		os.Exit(1)
	}

	appLogger.Info("Server exited")
	_ = appLogger.Sync()
}

// run returns only after every resource it opened is closed.
func run(cfg *config.Config, appLogger logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := connectRedis(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var repos *repository.Repositories
	switch cfg.Database.Driver {
	case config.StorageDriverPostgres:
		dbPool, err := connectPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer dbPool.Close()
		appLogger.Info("Database connection established")

		repos = repository.NewRepositories(dbPool, rdb, appLogger)
	case config.StorageDriverMemory:
		repos = memory.NewRepositories(memory.NewDB())
		if rdb != nil {
			repos.RateLimit = repository.NewRateLimitRepository(rdb, appLogger)
		}
		appLogger.Warn("Using in-memory storage, data is lost on restart")
	}

	registry := hub.NewRegistry(cfg.Hub.Shards, cfg.Hub.SendBuffer, appLogger)

	var router hub.Router = registry
	var redisRouter *broker.RedisRouter
	if cfg.Hub.Broker == config.BrokerRedis {
		redisRouter = broker.NewRedisRouter(rdb, cfg.Redis.EventsChannel, registry, appLogger)
		router = redisRouter
	}

	services := service.NewServices(repos, registry, router, cfg, appLogger)

	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer)
	authMiddleware := middleware.NewAuthMiddleware(tokens, appLogger)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(services.RateLimit, appLogger)

	handlers := handler.NewHandlers(services, registry, authMiddleware, cfg, appLogger)

	engine := setupRouter(handlers, authMiddleware, rateLimitMiddleware, cfg, appLogger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLogger.Info("Starting server", "addr", srv.Addr, "storage", cfg.Database.Driver, "broker", cfg.Hub.Broker)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if redisRouter != nil {
		g.Go(func() error {
			return redisRouter.Start(gctx)
		})
	}

	if rdb != nil {
		orderEvents := subscriber.NewOrderEventSubscriber(rdb, cfg.Redis.OrderChannel, router, appLogger)
		g.Go(func() error {
			return orderEvents.Start(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func connectPostgres(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConnections)
	poolCfg.MaxConnIdleTime = cfg.MaxIdleTime
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return dbPool, nil
}

// connectRedis returns a nil client when Redis is unreachable and nothing
// requires it. The redis broker makes it mandatory.
func connectRedis(ctx context.Context, cfg *config.Config, log logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		if cfg.Hub.Broker == config.BrokerRedis {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		log.Warn("Redis unavailable, rate limiting and order events disabled", "error", err)
		return nil, nil
	}

	log.Info("Redis connection established")
	return rdb, nil
}

func setupRouter(
	handlers *handler.Handlers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	cfg *config.Config,
	log logger.Logger,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Anonymous clients may connect; frames they send are rejected.
	router.GET("/ws/chat", handlers.WebSocket.HandleChat)

	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware.RequireAuth())
	{
		orders := v1.Group("/orders/:id")
		{
			orders.GET("/messages", handlers.Chat.GetMessages)
			orders.POST("/messages", rateLimitMiddleware.Limit("send"), handlers.Chat.SendMessage)
		}

		messages := v1.Group("/messages")
		{
			messages.GET("/unread-count", handlers.Chat.UnreadCount)
			messages.POST("/:id/read", handlers.Chat.MarkAsRead)
		}

		notifications := v1.Group("/notifications")
		{
			notifications.GET("", handlers.Notification.List)
			notifications.GET("/unread-count", handlers.Notification.UnreadCount)
			notifications.POST("/:id/read", handlers.Notification.MarkRead)
		}
	}

	return router
}
