package persistence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ppa-crm/internal/config"
)

const (
	redisDialTimeout = 2 * time.Second
	redisIOTimeout   = 500 * time.Millisecond
)

// Redis holds the client that shares login throttling state between instances.
// A nil Client means throttling is counted per process.
type Redis struct {
	Client *redis.Client
}

// NewRedis builds the client when an address is configured. An unreachable
// server is not fatal: the limiter falls back to memory on each failed call
// and picks Redis up again once it answers.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR empty; login throttling is per process")
		return &Redis{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  redisDialTimeout,
		ReadTimeout:  redisIOTimeout,
		WriteTimeout: redisIOTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable at startup", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}
	return &Redis{Client: client}
}

// Shared reports whether throttling state lives in Redis.
func (r *Redis) Shared() bool {
	return r != nil && r.Client != nil
}

// Close closes the client.
func (r *Redis) Close() {
	if r.Shared() {
		_ = r.Client.Close()
	}
}

// Ping checks the server. Without a configured client there is nothing to
// check and the process-local limiter is always available.
func (r *Redis) Ping(ctx context.Context) error {
	if !r.Shared() {
		return nil
	}
	return r.Client.Ping(ctx).Err()
}
