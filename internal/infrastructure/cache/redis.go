package cache

import (
	"context"
	"fmt"
	"time"

	"clinic-booking/config"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// NewRedisClient connects the client used for the admin token store and the
// booking slot locks.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, log *logrus.Logger) (*redis.Client, error) {
	client := redis.NewClient(newOptions(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout(cfg))
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis at %s: %w", cfg.Addr(), err)
	}

	log.WithFields(logrus.Fields{
		"addr": cfg.Addr(),
		"db":   cfg.DB,
	}).Info("Connected to Redis")

	return client, nil
}

func newOptions(cfg config.RedisConfig) *redis.Options {
	opts := &redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}
	if cfg.Timeout > 0 {
		opts.DialTimeout = cfg.Timeout
		opts.ReadTimeout = cfg.Timeout
		opts.WriteTimeout = cfg.Timeout
	}
	return opts
}

func dialTimeout(cfg config.RedisConfig) time.Duration {
	if cfg.Timeout > 0 {
		return cfg.Timeout
	}
	return 5 * time.Second
}
