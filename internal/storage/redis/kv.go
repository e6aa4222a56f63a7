package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// KVStore 以 Redis 字符串键保存配置值，实现 settings.Backend
// 持久性取决于 Redis 的 AOF/RDB 配置
type KVStore struct {
	client redis.Cmdable
	prefix string
}

// NewKVStore 创建配置键值存储，prefix 用于与其他业务键隔离
func NewKVStore(client redis.Cmdable, prefix string) *KVStore {
	return &KVStore{client: client, prefix: prefix}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *KVStore) Put(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}
