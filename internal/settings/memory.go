package settings

import (
	"context"
	"sync"
)

// MemoryBackend 进程内键值后端，重启即丢失，用于测试与无持久化部署
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	dup := make([]byte, len(v))
	copy(dup, v)
	return dup, true, nil
}

func (m *MemoryBackend) Put(_ context.Context, key string, value []byte) error {
	dup := make([]byte, len(value))
	copy(dup, value)
	m.mu.Lock()
	m.data[key] = dup
	m.mu.Unlock()
	return nil
}
