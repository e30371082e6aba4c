package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"testroyale/internal/common/cache"
	"testroyale/internal/common/mq"
	"testroyale/internal/engine"
	"testroyale/internal/engine/coverage"
	"testroyale/internal/engine/mutation"
	"testroyale/internal/engine/runner"
	"testroyale/internal/engine/throttle"
	"testroyale/internal/engine/toolchain"
	"testroyale/internal/engine/workspace"
	"testroyale/internal/events"
	"testroyale/internal/game/controller"
	"testroyale/internal/game/repository"
	"testroyale/internal/game/service"
	"testroyale/internal/realtime"
	"testroyale/pkg/utils/logger"
)

const defaultConfigPath = "configs/server.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	redisCache, err := cache.NewRedisCacheWithConfig(&appCfg.Redis)
	if err != nil {
		logger.Error(context.Background(), "init redis failed", zap.Error(err))
		return
	}
	defer func() {
		_ = redisCache.Close()
	}()

	workspaces, err := workspace.NewManager(appCfg.Workspace)
	if err != nil {
		logger.Error(context.Background(), "init workspace manager failed", zap.Error(err))
		return
	}

	executor := toolchain.NewLocalExecutor()
	pipeline, err := engine.NewPipeline(engine.Config{
		Workspaces:   workspaces,
		Runner:       runner.NewRunner(executor, appCfg.Toolchain),
		Coverage:     coverage.NewAnalyzer(executor, appCfg.Toolchain),
		Mutation:     mutation.NewAnalyzer(executor, appCfg.Toolchain),
		Throttle:     throttle.New(appCfg.Pipeline.MaxConcurrent, appCfg.Pipeline.MaxWait),
		ReleaseDelay: appCfg.Pipeline.ReleaseDelay,
	})
	if err != nil {
		logger.Error(context.Background(), "init pipeline failed", zap.Error(err))
		return
	}

	challenges, err := loadChallenges(appCfg.Challenges)
	if err != nil {
		logger.Error(context.Background(), "load challenges failed", zap.Error(err))
		return
	}

	hub := realtime.NewHub()
	publishers := []service.Publisher{hub}
	if len(appCfg.Events.Kafka.Brokers) > 0 {
		producer, err := mq.NewKafkaProducer(appCfg.Events.Kafka)
		if err != nil {
			logger.Error(context.Background(), "init kafka producer failed", zap.Error(err))
			return
		}
		defer func() {
			_ = producer.Close()
		}()
		publishers = append(publishers, events.NewGameEventPublisher(producer, appCfg.Events.Topic))
	}

	gameService, err := service.NewGameService(service.Config{
		Pipeline:   pipeline,
		Challenges: repository.NewSeededChallengeStore(challenges),
		Sessions:   repository.NewRedisSessionStore(redisCache, appCfg.Game.SessionTTL),
		Stats:      repository.NewRedisStatsStore(redisCache),
		Publishers: publishers,
	})
	if err != nil {
		logger.Error(context.Background(), "init game service failed", zap.Error(err))
		return
	}

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	workspaces.StartSweeper(sweepCtx, appCfg.Pipeline.SweepInterval, appCfg.Pipeline.SweepOlderThan)

	httpServer := buildHTTPServer(appCfg.Server, gameService, hub, redisCache)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "server started", zap.String("addr", appCfg.Server.Addr))
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
}

func buildHTTPServer(cfg ServerConfig, gameService *service.GameService, hub *realtime.Hub, redisCache cache.Cache) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(controller.TraceMiddleware())
	router.Use(requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		if err := redisCache.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	controller.NewGameController(gameService).RegisterRoutes(api)
	controller.NewWSController(hub, gameService).RegisterRoutes(api)

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		logger.Info(
			c.Request.Context(),
			"request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
