package redis_client

import (
	"context"
	"fmt"

	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/leeforge/captcha/env_mode"
	"github.com/leeforge/captcha/logging"
)

// NewRedis connects and pings. The client is closed again if the ping fails.
func NewRedis(ctx context.Context, cnf Config, logger logging.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cnf.Addr(),
		Password:    cnf.Password,
		DB:          cnf.DB,
		DialTimeout: cnf.DialTimeout,
	})

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", redisConfigLogFields(cnf), err)
	}
	if logger != nil && env_mode.Mode() == env_mode.DevMode {
		logger.Info("redis connected", zap.String("pong", pong), zap.String("config", redisConfigLogFields(cnf)))
	}
	return client, nil
}

func redisConfigLogFields(cnf Config) string {
	return fmt.Sprintf("addr=%s db=%d password=%s", cnf.Addr(), cnf.DB, redactedPassword(cnf.Password))
}

func redactedPassword(password string) string {
	if password == "" {
		return "<empty>"
	}
	return "[REDACTED]"
}
