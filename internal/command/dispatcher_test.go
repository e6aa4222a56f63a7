package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/taoyao-code/aqmon/internal/metrics"
	"github.com/taoyao-code/aqmon/internal/settings"
)

func newTestDispatcher(t *testing.T, opts ...Option) (*Dispatcher, *settings.Store, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	store := settings.NewStore(settings.NewMemoryBackend())
	opts = append([]Option{WithPollInterval(time.Millisecond)}, opts...)
	return NewDispatcher(store, zap.New(core), opts...), store, logs
}

func loadWifi(t *testing.T, store *settings.Store) settings.WifiConfig {
	t.Helper()
	c, err := settings.LoadWifiConfig(context.Background(), store)
	require.NoError(t, err)
	return c
}

func TestDispatcher_SetWifiConfigLine(t *testing.T) {
	d, store, _ := newTestDispatcher(t)

	d.Feed(context.Background(), []byte(`{"SetWifiConfig":{"ssid":"home","password":"secret"}}`+"\n"))

	assert.Equal(t, settings.WifiConfig{SSID: "home", Password: "secret"}, loadWifi(t, store))
	assert.Equal(t, 0, d.Buffered())
}

func TestDispatcher_LineSplitAcrossChunks(t *testing.T) {
	d, store, _ := newTestDispatcher(t)
	line := `{"SetWifiConfig":{"ssid":"cafe","password":"latte"}}` + "\n"
	ctx := context.Background()

	for i := 0; i < len(line); i += 5 {
		end := i + 5
		if end > len(line) {
			end = len(line)
		}
		if end < len(line) {
			// 没有换行前不执行
			d.Feed(ctx, []byte(line[i:end]))
			assert.Equal(t, settings.WifiConfig{}, loadWifi(t, store))
			continue
		}
		d.Feed(ctx, []byte(line[i:end]))
	}
	assert.Equal(t, "cafe", loadWifi(t, store).SSID)
}

func TestDispatcher_MultipleLinesInOneChunk(t *testing.T) {
	var ack bytes.Buffer
	d, store, _ := newTestDispatcher(t, WithAck(&ack))

	d.Feed(context.Background(), []byte(
		`{"SetWifiConfig":{"ssid":"first","password":"1"}}`+"\n"+
			`{"SetWifiConfig":{"ssid":"second","password":"2"}}`+"\n"+
			`{"SetWi`))

	assert.Equal(t, settings.WifiConfig{SSID: "second", Password: "2"}, loadWifi(t, store))
	assert.Equal(t, len(`{"SetWi`), d.Buffered())
	assert.Equal(t, 2, strings.Count(ack.String(), `"ok":true`))
}

func TestDispatcher_MalformedLineDoesNotStopLoop(t *testing.T) {
	var ack bytes.Buffer
	m := metrics.NewAppMetrics(metrics.NewRegistry())
	d, store, logs := newTestDispatcher(t, WithAck(&ack), WithMetrics(m))
	ctx := context.Background()

	d.Feed(ctx, []byte("{not json}\n"))
	assert.Equal(t, 0, d.Buffered())
	assert.Equal(t, 1, logs.FilterMessage("error decoding command").Len())

	d.Feed(ctx, []byte(`{"SetWifiConfig":{"ssid":"ok","password":"pw"}}`+"\n"))
	assert.Equal(t, "ok", loadWifi(t, store).SSID)

	lines := strings.Split(strings.TrimSpace(ack.String()), "\n")
	require.Len(t, lines, 2)
	var first, second Ack
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.False(t, first.OK)
	assert.Contains(t, first.Error, "malformed command")
	assert.Equal(t, Ack{OK: true, Command: "SetWifiConfig"}, second)
}

func TestDispatcher_InvalidUTF8KeepsBuffer(t *testing.T) {
	d, store, logs := newTestDispatcher(t)
	ctx := context.Background()

	d.Feed(ctx, []byte{0xff, 0xfe, '\n'})
	assert.Equal(t, 3, d.Buffered())
	assert.Equal(t, 1, logs.FilterMessage("control line is not valid utf-8, keeping buffer").Len())

	// 无效字节仍在缓冲中，后续行同样无法执行
	d.Feed(ctx, []byte(`{"SetWifiConfig":{"ssid":"x","password":"y"}}`+"\n"))
	assert.Equal(t, settings.WifiConfig{}, loadWifi(t, store))
	assert.Greater(t, d.Buffered(), 3)
}

type errBackend struct{}

func (errBackend) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (errBackend) Put(context.Context, string, []byte) error {
	return errors.New("flash write failed")
}

func TestDispatcher_ApplyErrorLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	var ack bytes.Buffer
	d := NewDispatcher(settings.NewStore(errBackend{}), zap.New(core), WithAck(&ack))

	d.Feed(context.Background(), []byte(`{"SetWifiConfig":{"ssid":"x","password":"y"}}`+"\n"))

	assert.Equal(t, 1, logs.FilterMessage("error executing command").Len())
	assert.Contains(t, ack.String(), "flash write failed")
	assert.Equal(t, 0, d.Buffered())
}

func TestDispatcher_RunStopsOnReadError(t *testing.T) {
	d, store, _ := newTestDispatcher(t)
	src := strings.NewReader(`{"SetWifiConfig":{"ssid":"home","password":"secret"}}` + "\n")

	err := d.Run(context.Background(), src)
	assert.ErrorIs(t, err, ErrByteSource)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, settings.WifiConfig{SSID: "home", Password: "secret"}, loadWifi(t, store))
}

type blockingReader struct{}

func (blockingReader) Read(p []byte) (int, error) { return 0, nil }

func TestDispatcher_RunHonoursContext(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := d.Run(ctx, blockingReader{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
