package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrEvaluationInProgress indicates another request is already scoring the application.
var ErrEvaluationInProgress = errors.New("evaluation already in progress")

// EvaluationLocker guards an application against concurrent scoring runs.
type EvaluationLocker interface {
	// Acquire returns a release func, or ErrEvaluationInProgress when the lock is held.
	Acquire(ctx context.Context, applicationID string) (func(), error)
}

// NoopEvaluationLocker never blocks. Concurrent runs are last-writer-wins.
type NoopEvaluationLocker struct{}

// Acquire implements EvaluationLocker.
func (NoopEvaluationLocker) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisEvaluationLocker holds a short lived SETNX key per application.
type RedisEvaluationLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisEvaluationLocker constructs a locker. A non-positive ttl falls back to two minutes.
func NewRedisEvaluationLocker(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisEvaluationLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisEvaluationLocker{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "evaluation_lock").Logger(),
	}
}

func evaluationLockKey(applicationID string) string {
	return fmt.Sprintf("pitch:evaluate:lock:%s", applicationID)
}

// Acquire implements EvaluationLocker. Redis outages fail open so scoring stays available.
func (l *RedisEvaluationLocker) Acquire(ctx context.Context, applicationID string) (func(), error) {
	key := evaluationLockKey(applicationID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		l.logger.Warn().Err(err).Str("application_id", applicationID).Msg("evaluation lock unavailable, continuing without it")
		return func() {}, nil
	}
	if !ok {
		return nil, ErrEvaluationInProgress
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn().Err(err).Str("application_id", applicationID).Msg("failed to release evaluation lock")
		}
	}
	return release, nil
}
