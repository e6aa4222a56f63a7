package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/aqmon/internal/config"
	appmetrics "github.com/taoyao-code/aqmon/internal/metrics"
)

func serve(s *Server, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestHealthzReadyzMetrics(t *testing.T) {
	cfg := cfgpkg.HTTPConfig{Addr: ":0", ReadTimeout: time.Second, WriteTimeout: time.Second}
	reg := appmetrics.NewRegistry()
	srv := New(cfg, "/metrics", appmetrics.Handler(reg), func() bool { return true })

	assert.Equal(t, http.StatusOK, serve(srv, "/healthz").Code)
	assert.Equal(t, http.StatusOK, serve(srv, "/readyz").Code)
	assert.Equal(t, http.StatusOK, serve(srv, "/metrics").Code)
}

func TestReadyzNotReady(t *testing.T) {
	cfg := cfgpkg.HTTPConfig{Addr: ":0", ReadTimeout: time.Second, WriteTimeout: time.Second}
	srv := New(cfg, "", nil, func() bool { return false })

	rr := serve(srv, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "not-ready", rr.Body.String())
	assert.Equal(t, http.StatusNotFound, serve(srv, "/metrics").Code)
}

func TestEngineRegistersRoutes(t *testing.T) {
	srv := New(cfgpkg.HTTPConfig{Addr: ":0"}, "", nil, nil)
	srv.Engine().GET("/extra", func(c *gin.Context) { c.String(http.StatusOK, "x") })
	assert.Equal(t, http.StatusOK, serve(srv, "/extra").Code)
}

func TestRunStopsOnCancel(t *testing.T) {
	srv := New(cfgpkg.HTTPConfig{Addr: "127.0.0.1:0"}, "", nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, time.Second)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
