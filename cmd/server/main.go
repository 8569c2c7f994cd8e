// Package main is the entry point for the screenroom server. It stays
// minimal on purpose: load config, build the logger, probe optional
// dependencies, hand everything to the server package.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tahmid/screenroom/internal/config"
	"github.com/tahmid/screenroom/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.DevSecret {
		logger.Warn("SESSION_SECRET not set, using the built-in development secret; " +
			"sessions are forgeable — never run production like this")
	}

	// Make sure the database directory exists before sqlite tries to
	// create the file inside it.
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("creating database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// Redis is optional: it only backs the login rate limiter. If it is
	// not configured or not answering, the server runs without limiting
	// rather than refusing to start.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, login rate limiting disabled",
				slog.String("addr", cfg.RedisAddr),
				slog.String("error", err.Error()),
			)
			_ = rdb.Close()
			rdb = nil
		}
		cancel()
	}

	srv, err := server.New(cfg, rdb, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
