package redis

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/aqmon/internal/settings"
)

// 使用测试用Redis客户端（需要真实Redis实例）
func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // 使用测试专用数据库
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skip("Redis not available, skipping test")
		return nil
	}

	client.FlushDB(ctx)
	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})
	return client
}

func TestKVStore_WifiConfigRoundTrip(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	store := settings.NewStore(NewKVStore(client, "aqmon:test:"))

	got, err := settings.LoadWifiConfig(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, settings.WifiConfig{}, got)

	want := settings.WifiConfig{SSID: "home", Password: "secret"}
	require.NoError(t, settings.SaveWifiConfig(ctx, store, want))

	got, err = settings.LoadWifiConfig(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	raw, err := client.Get(ctx, "aqmon:test:"+settings.WifiConfigKey).Bytes()
	require.NoError(t, err)
	assert.Equal(t, byte(4), raw[0])
}

func TestKVStore_CorruptValue(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "aqmon:test:"+settings.WifiConfigKey, []byte{0x09}, 0).Err())

	_, err := settings.LoadWifiConfig(ctx, settings.NewStore(NewKVStore(client, "aqmon:test:")))
	assert.ErrorIs(t, err, settings.ErrConfigCorrupt)
}

func TestClient_ConfigPresentUsesPrefix(t *testing.T) {
	rdb := setupTestRedis(t)
	ctx := context.Background()
	c := newClient(rdb, "aqmon:test:")

	ok, err := c.ConfigPresent(ctx, settings.WifiConfigKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, settings.SaveWifiConfig(ctx, c.KVStore(), settings.WifiConfig{SSID: "lab"}))
	ok, err = c.ConfigPresent(ctx, settings.WifiConfigKey)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := rdb.Exists(ctx, "aqmon:test:"+settings.WifiConfigKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, c.HealthCheck(ctx))
}
