package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/colathro/multiplayer-web/internal/api"
	"github.com/colathro/multiplayer-web/internal/api/router"
	"github.com/colathro/multiplayer-web/internal/database"
	"github.com/colathro/multiplayer-web/internal/env"
	"github.com/colathro/multiplayer-web/internal/logger"
	"github.com/colathro/multiplayer-web/internal/presence"
	"github.com/colathro/multiplayer-web/internal/queue"
	"github.com/colathro/multiplayer-web/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := env.Load()
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queueManager, presenceQueue := newQueues(cfg)
	dispatcher := presence.NewDispatcher(presenceQueue, presenceSinks(ctx, cfg)...)

	hub := websocket.NewHub(websocket.Options{
		FlushInterval:     cfg.FlushInterval,
		KeepAliveInterval: cfg.KeepAliveInterval,
		WriteTimeout:      cfg.WriteTimeout,
		MaxMessageSize:    cfg.MaxMessageSize,
		OutboxLimit:       cfg.OutboxLimit,
		AllowedOrigins:    cfg.AllowedOrigins,
	}, dispatcher)
	handler := websocket.NewHandler(hub)

	server := api.NewAPIServer(
		api.ServerConfig{ListenAddr: cfg.ListenAddr, AllowedOrigins: cfg.AllowedOrigins},
		queueManager,
		handler,
		router.UtilsRoutes(""),
		router.PresenceRoutes(""),
	)

	if err := server.Run(ctx); err != nil {
		log.Error().Str("module", "main").Err(err).Msg("server stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hub.Shutdown(shutdownCtx); err != nil {
		log.Warn().Str("module", "main").Err(err).Msg("websocket sessions did not close in time")
	}
	queueManager.Shutdown()
	presenceQueue.Shutdown()
	log.Info().Str("module", "main").Msg("bye")
}

// newQueues returns separate worker pools for HTTP handlers and presence
// sinks, so a slow sink backend never holds up a request.
func newQueues(cfg env.Config) (httpQueue, presenceQueue *queue.RequestQueueManager) {
	return queue.NewRequestQueueManager(cfg.QueueSize, cfg.QueueWorkers),
		queue.NewRequestQueueManager(cfg.QueueSize, cfg.QueueWorkers)
}

func presenceSinks(ctx context.Context, cfg env.Config) []presence.Sink {
	var sinks []presence.Sink

	if cfg.RedisEnabled() {
		client := presence.NewRedisClient(cfg.RedisURL, cfg.RedisPass)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			log.Warn().Str("module", "main").Err(err).Msg("redis not reachable yet, presence feed will retry")
		}
		cancel()
		sinks = append(sinks, presence.NewRedisSink(client))
		log.Info().Str("module", "main").Str("addr", cfg.RedisURL).Msg("presence feed enabled")
	}

	if cfg.LedgerEnabled() {
		db, err := database.NewDatabase(ctx, database.Config{
			Region:       cfg.AWSRegion,
			Endpoint:     cfg.DynamoDBEndpoint,
			AccessKey:    cfg.AWSID,
			SecretKey:    cfg.AWSSecret,
			SessionToken: cfg.AWSToken,
		})
		if err != nil {
			log.Fatal().Str("module", "main").Err(err).Msg("db init failed")
		}
		sinks = append(sinks, presence.NewLedgerSink(db.Client, cfg.PresenceTable))
		log.Info().Str("module", "main").Str("table", cfg.PresenceTable).Msg("presence ledger enabled")
	}

	return sinks
}
