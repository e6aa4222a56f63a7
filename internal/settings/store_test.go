package settings

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyStoreReturnsDefault(t *testing.T) {
	store := NewStore(NewMemoryBackend())

	cfg, err := LoadWifiConfig(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, WifiConfig{SSID: "", Password: ""}, cfg)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cfg  WifiConfig
	}{
		{"普通凭据", WifiConfig{SSID: "home", Password: "secret"}},
		{"空字符串", WifiConfig{}},
		{"仅SSID", WifiConfig{SSID: "open-net"}},
		{"多字节UTF-8", WifiConfig{SSID: "咖啡店-5G", Password: "пароль🔑"}},
		{"长密码", WifiConfig{SSID: "x", Password: string(make([]byte, 300))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := NewStore(NewMemoryBackend())

			require.NoError(t, SaveWifiConfig(ctx, store, tt.cfg))
			got, err := LoadWifiConfig(ctx, store)
			require.NoError(t, err)
			assert.Equal(t, tt.cfg, got)
		})
	}
}

func TestSave_ReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryBackend())

	require.NoError(t, SaveWifiConfig(ctx, store, WifiConfig{SSID: "a", Password: "long-password"}))
	require.NoError(t, SaveWifiConfig(ctx, store, WifiConfig{SSID: "b"}))

	got, err := LoadWifiConfig(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, WifiConfig{SSID: "b"}, got)
}

func TestLoad_CorruptIsDistinguishable(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"空值", []byte{}},
		{"长度越界", []byte{0x05, 'a', 'b'}},
		{"缺少密码字段", []byte{0x01, 'a'}},
		{"非法UTF-8", []byte{0x02, 0xff, 0xfe, 0x00}},
		{"varint未结束", []byte{0x80}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			backend := NewMemoryBackend()
			require.NoError(t, backend.Put(ctx, WifiConfigKey, tt.raw))

			_, err := LoadWifiConfig(ctx, NewStore(backend))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfigCorrupt)
		})
	}
}

func TestWifiConfig_WireFormat(t *testing.T) {
	raw, err := WifiConfig{SSID: "home", Password: "secret"}.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte{4}, "home"...), append([]byte{6}, "secret"...)...), raw)

	// 多余尾部字节忽略
	var c WifiConfig
	require.NoError(t, c.UnmarshalBinary(append(raw, 0xAA, 0xBB)))
	assert.Equal(t, "secret", c.Password)
}

type failingBackend struct{ err error }

func (f failingBackend) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }
func (f failingBackend) Put(context.Context, string, []byte) error      { return f.err }

func TestStore_BackendErrorNotCorrupt(t *testing.T) {
	boom := errors.New("nvs: partition not found")
	store := NewStore(failingBackend{err: boom})

	_, err := LoadWifiConfig(context.Background(), store)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrConfigCorrupt)

	err = SaveWifiConfig(context.Background(), store, WifiConfig{SSID: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestStore_DoHoldsLock(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryBackend())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Do(ctx, func(kv Backend) error {
				// 读-改-写在锁内完成，不会丢失更新
				c, err := LoadWifiConfig(ctx, kv)
				if err != nil {
					return err
				}
				c.Password += "x"
				return SaveWifiConfig(ctx, kv, c)
			})
		}()
	}
	wg.Wait()

	got, err := LoadWifiConfig(ctx, store)
	require.NoError(t, err)
	assert.Len(t, got.Password, 50)
}
