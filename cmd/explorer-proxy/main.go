// Command explorer-proxy serves the Flare explorer's resources as JSON over REST.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/flare-explorer-client/internal/config"
	"github.com/Sternrassler/flare-explorer-client/pkg/checkpoint"
	"github.com/Sternrassler/flare-explorer-client/pkg/client"
	"github.com/Sternrassler/flare-explorer-client/pkg/explorer"
	"github.com/Sternrassler/flare-explorer-client/pkg/logging"
	"github.com/Sternrassler/flare-explorer-client/pkg/ratelimit"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if _, err := logging.Setup(cfg.LoggingConfig()); err != nil {
		log.Fatal().Err(err).Msg("Failed to configure logging")
	}
	logger := logging.NewLogger("proxy")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clientCfg := cfg.ClientConfig()
	clientLogger := logging.NewLogger("client")
	clientCfg.Logger = &clientLogger

	srv := &server{
		walk:   cfg.Walk,
		logger: logger,
	}

	if cfg.RedisEnabled() {
		opts, err := cfg.RedisOptions()
		if err != nil {
			logger.Fatal().Err(err).Msg("Invalid Redis configuration")
		}

		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Str("addr", opts.Addr).Msg("Failed to connect to Redis")
		}
		logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")

		clientCfg.RateLimiter = ratelimit.NewTracker(redisClient, logging.NewLogger("ratelimit"), ratelimit.DefaultConfig())
		srv.redis = redisClient
		srv.checkpoints = checkpoint.NewStore(redisClient, cfg.Redis.CheckpointTTL)
	}

	explorerClient, err := client.New(clientCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create explorer client")
	}
	srv.explorer = explorer.New(explorerClient)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	logger.Info().
		Str("addr", cfg.ListenAddress).
		Str("endpoint", explorerClient.Endpoint()).
		Str("user_agent", cfg.Explorer.UserAgent).
		Bool("redis", cfg.RedisEnabled()).
		Msg("Starting explorer proxy")

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Server failed")
	}
	logger.Info().Msg("Explorer proxy stopped")
}
