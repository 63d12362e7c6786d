package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/chatflow/chatflow/internal/application/config"
	"github.com/chatflow/chatflow/internal/application/constant"
	"github.com/chatflow/chatflow/internal/application/metric"
	"github.com/chatflow/chatflow/internal/infra/adapters/memory"
	"github.com/chatflow/chatflow/internal/infra/adapters/redis"
	"github.com/chatflow/chatflow/internal/infra/adapters/storage"
	"github.com/chatflow/chatflow/internal/infra/ports/http/handlers"
	"github.com/chatflow/chatflow/internal/infra/ports/http/server"
	"github.com/chatflow/chatflow/internal/usecase"
)

func runApp() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	slog.SetDefault(
		slog.New(
			slog.NewJSONHandler(
				os.Stdout,
				&slog.HandlerOptions{Level: slog.LevelInfo},
			),
		),
	)

	cfg, err := config.New()
	if err != nil {
		slog.Error("parse config", slog.Any(constant.Error, err))
		os.Exit(1)
	}

	var (
		store     storage.Store
		broadcast storage.Broadcast
	)

	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Error("connect to redis", slog.Any(constant.Error, err))
			os.Exit(1)
		}
		defer rdb.Close()

		store = redis.NewStore(rdb)
		broadcast = redis.NewBroadcast(rdb)
	} else {
		slog.Warn("REDIS_ADDR not set, falling back to in-memory store (single instance only)")

		store = memory.NewStore()
		broadcast = memory.NewBroadcast()
	}

	roomUsecase := usecase.NewRoomUsecase([]byte(cfg.TokenSecret), store, broadcast)
	messageUsecase := usecase.NewMessageUsecase(store, broadcast)

	roomHandler := handlers.NewRoomHandler(roomUsecase)
	messageHandler := handlers.NewMessageHandler(messageUsecase)
	wsHandler := handlers.NewWebSocketHandler(cfg, broadcast)

	echoSrv := server.New(cfg, roomHandler, messageHandler, wsHandler)
	echoSrv.Server.ReadHeaderTimeout = 10 * time.Second

	metricsSrv := metric.NewServer()

	echoSrvCh := make(chan error, 1)
	metricsSrvCh := make(chan error, 1)

	go func() {
		echoSrvCh <- echoSrv.Start(":" + cfg.Port)
	}()

	go func() {
		metricsSrvCh <- metricsSrv.Start(":" + cfg.MetricPort)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down servers due to context cancel")
	case err := <-echoSrvCh:
		slog.Error("HTTP server failed", slog.Any(constant.Error, err))
		os.Exit(1)
	case err := <-metricsSrvCh:
		slog.Error("Metrics server failed", slog.Any(constant.Error, err))
		os.Exit(1)
	}

	timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer timeoutCancel()

	if err := echoSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown HTTP server", slog.Any(constant.Error, err))
	}

	if err := metricsSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown metric server", slog.Any(constant.Error, err))
	}
}
