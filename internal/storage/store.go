// Package storage provides the object store the speech pipeline writes
// audio artifacts to and the transport layer polls for existence.
package storage

import (
	"context"
	"fmt"
	"time"

	errx "github.com/banxian-ai/server/internal/core/error"
	logx "github.com/banxian-ai/server/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// ObjectStore is the minimal surface the speech side-effect and the audio
// polling loop depend on.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)
}

// RedisObjectStore keeps artifacts as byte values with a TTL. Artifacts are
// short-lived by nature; clients fetch them shortly after the turn completes.
type RedisObjectStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisObjectStore(rdb redis.Cmdable, ttl time.Duration) *RedisObjectStore {
	return &RedisObjectStore{rdb: rdb, ttl: ttl}
}

func (s *RedisObjectStore) objectKey(key string) string {
	return fmt.Sprintf("artifact:%s", key)
}

func (s *RedisObjectStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.rdb.Set(ctx, s.objectKey(key), data, s.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to store artifact")
		return errx.WrapRedis(err)
	}
	return nil
}

func (s *RedisObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.objectKey(key)).Result()
	if err != nil {
		return false, errx.WrapRedis(err)
	}
	return n > 0, nil
}

var _ ObjectStore = (*RedisObjectStore)(nil)
