// Package settings 设备配置的持久化读写（键值存储 + 二进制序列化）
package settings

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"sync"
)

// ErrConfigCorrupt 已存储的配置无法反序列化；与“键不存在”严格区分
var ErrConfigCorrupt = errors.New("settings: stored config is corrupt")

// Backend 不透明的键值持久化后端
// Get 的 bool 返回值表示键是否存在；不存在不是错误
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Store 互斥保护的配置存储，进程内唯一实例，显式构造后传递给使用方
type Store struct {
	mu      sync.Mutex
	backend Backend
}

// NewStore 创建配置存储
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Get 持锁读取单个键
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Get(ctx, key)
}

// Put 持锁写入单个键
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Put(ctx, key, value)
}

// Do 在整个 fn 执行期间持有锁，fn 拿到的是未加锁的底层后端
// fn 内不得再调用 s 的方法
func (s *Store) Do(ctx context.Context, fn func(kv Backend) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.backend)
}

// binaryRecord 可从字节反序列化的配置记录
type binaryRecord[T any] interface {
	*T
	encoding.BinaryUnmarshaler
}

// Load 读取并反序列化 key 对应的配置
// 键不存在时返回 T 的零值（即默认值）；存在但无法解码时返回 ErrConfigCorrupt
func Load[T any, PT binaryRecord[T]](ctx context.Context, kv Backend, key string) (T, error) {
	var v T
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return v, fmt.Errorf("settings: get %s: %w", key, err)
	}
	if !ok {
		return v, nil
	}
	if err := PT(&v).UnmarshalBinary(raw); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: key %s: %w", ErrConfigCorrupt, key, err)
	}
	return v, nil
}

// Save 序列化并整体替换 key 对应的值
func Save(ctx context.Context, kv Backend, key string, v encoding.BinaryMarshaler) error {
	raw, err := v.MarshalBinary()
	if err != nil {
		return fmt.Errorf("settings: marshal %s: %w", key, err)
	}
	if err := kv.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("settings: put %s: %w", key, err)
	}
	return nil
}
