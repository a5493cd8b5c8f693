// Package idempotency защищает создание заказов от повторной отправки одного запроса.
package idempotency

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "freshmart:idem:"

// DefaultTTL задаёт срок жизни ключа идемпотентности по умолчанию.
const DefaultTTL = 24 * time.Hour

// RedisStore хранит ключи идемпотентности в Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore создаёт хранилище ключей. Неположительный ttl заменяется на DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Reserve атомарно занимает ключ. false означает, что ключ уже был занят ранее.
func (s *RedisStore) Reserve(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+key, 1, s.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "reserve idempotency key")
	}
	return ok, nil
}

// Release освобождает ключ, чтобы неудавшийся запрос можно было повторить.
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return errors.Wrap(err, "release idempotency key")
	}
	return nil
}

// Ping проверяет доступность Redis.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
