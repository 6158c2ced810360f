package main

import (
	"context"
	"crypto/tls"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/learnhub/backend/internal/config"
	"github.com/learnhub/backend/internal/logging"
	"github.com/learnhub/backend/internal/videocache"
)

func main() {
	logging.Setup(os.Stdout, os.Getenv("LOG_LEVEL"))

	cfg := config.LoadVideoCache()

	fetcher, err := videocache.NewYouTubeFetcher(context.Background(), cfg.YouTubeAPIKey)
	if err != nil {
		slog.Error("youtube client init failed", "error", err)
		os.Exit(1)
	}

	opts := &redis.Options{
		Addr:        cfg.RedisAddr(),
		Password:    cfg.RedisPassword,
		DialTimeout: 2 * time.Second,
		ReadTimeout: time.Second,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	rdb := redis.NewClient(opts)
	redisStore := videocache.NewRedisStore(rdb)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := redisStore.Ping(ctx); err != nil {
		slog.Warn("redis unavailable at startup, serving from memory until it recovers", "addr", cfg.RedisAddr(), "error", err)
	}
	cancel()

	memory := videocache.NewMemoryStore()
	service := videocache.NewService(videocache.NewFallbackStore(redisStore, memory), fetcher, cfg.CacheTTL)

	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := memory.Sweep(); n > 0 {
					slog.Info("memory cache sweep", "removed", n)
				}
			case <-sweepDone:
				return
			}
		}
	}()

	app := fiber.New()
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${method} | ${path}\n",
	}))
	app.Use(cors.New())
	videocache.NewHandler(service, redisStore).Register(app)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("video cache starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down video cache...")

	close(sweepDone)
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	if err := rdb.Close(); err != nil {
		slog.Error("redis close error", "error", err)
	}
}
