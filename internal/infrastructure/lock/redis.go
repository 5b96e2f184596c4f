// Package lock serializes captures of one provider order across service replicas.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/gonomads/payment-service/internal/application"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "payments:capture-lock:"
	retryDelay = 100 * time.Millisecond
	defaultTTL = 30 * time.Second
)

// RedisSerializer takes the in-process lane for a key first, so a replica never races
// itself for the redis mutex, then holds a redsync mutex while fn runs.
type RedisSerializer struct {
	rs     *redsync.Redsync
	local  application.OrderSerializer
	ttl    time.Duration
	tries  int
	logger *slog.Logger
}

func NewRedisSerializer(client redis.UniversalClient, local application.OrderSerializer, ttl, wait time.Duration, logger *slog.Logger) *RedisSerializer {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	tries := int(wait / retryDelay)
	if tries < 1 {
		tries = 1
	}
	return &RedisSerializer{
		rs:     redsync.New(goredis.NewPool(client)),
		local:  local,
		ttl:    ttl,
		tries:  tries,
		logger: logger,
	}
}

func (s *RedisSerializer) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return s.local.Do(ctx, key, func(ctx context.Context) error {
		mutex := s.rs.NewMutex(
			keyPrefix+key,
			redsync.WithExpiry(s.ttl),
			redsync.WithTries(s.tries),
			redsync.WithRetryDelay(retryDelay),
		)

		if err := mutex.LockContext(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			var taken *redsync.ErrTaken
			if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) {
				s.logger.Info("capture lock held by another replica", "key", key)
				return application.NewCaptureInProgressError()
			}
			return fmt.Errorf("acquire capture lock %s: %w", key, err)
		}

		stop := make(chan struct{})
		go s.keepAlive(mutex, key, stop)
		defer func() {
			close(stop)
			if _, err := mutex.UnlockContext(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("failed to release capture lock", "key", key, "error", err)
			}
		}()

		return fn(ctx)
	})
}

// keepAlive extends the mutex at half its expiry until stop closes.
func (s *RedisSerializer) keepAlive(mutex *redsync.Mutex, key string, stop <-chan struct{}) {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if ok, err := mutex.Extend(); !ok || err != nil {
				s.logger.Warn("failed to extend capture lock", "key", key, "error", err)
				return
			}
		}
	}
}
