package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/aqmon/internal/config"
	"github.com/taoyao-code/aqmon/internal/health"
	"github.com/taoyao-code/aqmon/internal/settings"
	pgstorage "github.com/taoyao-code/aqmon/internal/storage/pg"
)

// StoreHandle 已打开的配置存储及其附属资源
type StoreHandle struct {
	Store    *settings.Store
	Checkers []health.Checker
	closers  []func()
}

// Close 释放后端连接
func (h *StoreHandle) Close() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		h.closers[i]()
	}
}

// OpenStore 按 store.backend 打开配置存储
func OpenStore(ctx context.Context, cfg *cfgpkg.Config, log *zap.Logger) (*StoreHandle, error) {
	h := &StoreHandle{}
	var backend settings.Backend

	switch cfg.Store.Backend {
	case "memory":
		log.Warn("using in-memory config store, settings are lost on restart")
		backend = settings.NewMemoryBackend()

	case "file":
		fb, err := settings.NewFileBackend(cfg.Store.FileDir)
		if err != nil {
			return nil, err
		}
		backend = fb

	case "redis":
		client, err := NewRedisClient(cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, func() { _ = client.Close() })
		h.Checkers = append(h.Checkers, health.NewRedisChecker(client, settings.WifiConfigKey))
		backend = client.KVStore()

	case "postgres":
		pool, err := ConnectDBAndMigrate(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, pool.Close)
		h.Checkers = append(h.Checkers, health.NewDatabaseChecker(pool))
		backend = pgstorage.NewKVStore(pool)

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	h.Store = settings.NewStore(backend)
	h.Checkers = append(h.Checkers, health.NewStoreChecker(h.Store))
	log.Info("config store opened", zap.String("backend", cfg.Store.Backend))
	return h, nil
}
