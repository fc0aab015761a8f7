package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"maxscale/config"
	"maxscale/utils"
)

const sweepInterval = time.Minute

// newRateLimitStore opens the configured backend. The returned cleanup stops
// background sweeping and closes connections.
func newRateLimitStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (utils.RateLimitStore, func(), error) {
	switch cfg.RateLimit {
	case config.StoreRedis:
		client, err := utils.OpenRedisPool(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info("rate limit store", "backend", config.StoreRedis)
		return utils.NewRedisStore(client), func() { client.Close() }, nil

	case config.StorePostgres:
		db, err := utils.OpenDB(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		store := utils.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to create rate limit table: %w", err)
		}

		sweepCtx, cancel := context.WithCancel(ctx)
		go func() {
			ticker := time.NewTicker(sweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-sweepCtx.Done():
					return
				case now := <-ticker.C:
					n, err := store.Sweep(sweepCtx, now)
					if err != nil {
						logger.Warn("rate limit sweep failed", "error", err)
						continue
					}
					if n > 0 {
						logger.Debug("swept expired rate limit windows", "removed", n)
					}
				}
			}
		}()
		logger.Info("rate limit store", "backend", config.StorePostgres)
		return store, func() { cancel(); db.Close() }, nil

	default:
		store := utils.NewMemoryStore()
		sweepCtx, cancel := context.WithCancel(ctx)
		go store.RunSweeper(sweepCtx, sweepInterval, logger)
		logger.Info("rate limit store", "backend", config.StoreMemory)
		return store, cancel, nil
	}
}

// newSender talks to SendGrid when a key is configured. Without one, mail is
// only logged; config validation rules that out in production.
func newSender(cfg config.Config, logger *slog.Logger) utils.Sender {
	if cfg.SendGridKey != "" {
		return utils.NewSendGridSender(cfg.SendGridKey)
	}
	logger.Warn("SENDGRID_API_KEY not set, mail will only be logged")
	return utils.NewLogSender(logger)
}
