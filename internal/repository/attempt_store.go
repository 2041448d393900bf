package repository

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptStore tracks verification attempt counts per (event, client
// session). The counter is scoped to the client's session key: starting a
// fresh client session yields a fresh counter, which is the only lockout
// recovery path. There is no server-side cooldown.
type AttemptStore interface {
	Get(ctx context.Context, eventID, sessionKey string) (int, error)
	Increment(ctx context.Context, eventID, sessionKey string) (int, error)
	Clear(ctx context.Context, eventID, sessionKey string) error
}

type redisAttemptStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAttemptStore(client *redis.Client, ttl time.Duration) AttemptStore {
	return &redisAttemptStore{client: client, ttl: ttl}
}

func attemptKey(eventID, sessionKey string) string {
	// Hash the composite key for privacy and consistent length
	sum := sha256.Sum256([]byte(eventID + ":" + sessionKey))
	return fmt.Sprintf("verify_attempts:%x", sum)
}

func (s *redisAttemptStore) Get(ctx context.Context, eventID, sessionKey string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	n, err := s.client.Get(ctx, attemptKey(eventID, sessionKey)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *redisAttemptStore) Increment(ctx context.Context, eventID, sessionKey string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	key := attemptKey(eventID, sessionKey)
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return int(n), err
	}
	return int(n), nil
}

func (s *redisAttemptStore) Clear(ctx context.Context, eventID, sessionKey string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return s.client.Del(ctx, attemptKey(eventID, sessionKey)).Err()
}
