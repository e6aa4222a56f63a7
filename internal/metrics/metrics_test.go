package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppMetrics_RegisterAndExpose(t *testing.T) {
	reg := NewRegistry()
	m := NewAppMetrics(reg)

	m.SensorFramesTotal.Inc()
	m.SensorResyncTotal.WithLabelValues("checksum").Add(3)
	m.CommandTotal.WithLabelValues("SetWifiConfig", "ok").Inc()

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, "pms_frames_total 1"))
	assert.True(t, strings.Contains(body, `pms_resync_total{reason="checksum"} 3`))
	assert.True(t, strings.Contains(body, `control_command_total{cmd="SetWifiConfig",result="ok"} 1`))
}
