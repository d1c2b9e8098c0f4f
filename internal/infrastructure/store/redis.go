package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/campuslib/library-console/internal/core/domain"
)

// RedisStore keeps credentials in Redis under <namespace>:token and
// <namespace>:user. Set runs inside MULTI/EXEC.
type RedisStore struct {
	client *redis.Client
	ns     string
}

func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "library-console"
	}
	return &RedisStore{client: client, ns: namespace}
}

func (s *RedisStore) Get(ctx context.Context) (domain.Credentials, bool, error) {
	vals, err := s.client.MGet(ctx, s.key(tokenKey), s.key(userKey)).Result()
	if err != nil {
		return domain.Credentials{}, false, fmt.Errorf("redis mget credentials: %w", err)
	}
	token, _ := vals[0].(string)
	raw, _ := vals[1].(string)
	return decode(token, raw)
}

func (s *RedisStore) Set(ctx context.Context, token string, user *domain.Profile) error {
	raw, err := encode(token, user)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(tokenKey), token, 0)
		pipe.Set(ctx, s.key(userKey), raw, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set credentials: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key(tokenKey), s.key(userKey)).Err(); err != nil {
		return fmt.Errorf("redis clear credentials: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) key(k string) string {
	return s.ns + ":" + k
}
