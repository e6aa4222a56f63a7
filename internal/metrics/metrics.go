package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 自定义业务指标
type AppMetrics struct {
	SensorFramesTotal  prometheus.Counter
	SensorResyncTotal  *prometheus.CounterVec // labels: reason=start_byte|checksum
	SensorBytesTotal   prometheus.Counter
	SensorSessionTotal *prometheus.CounterVec // labels: result=started|failed
	SensorReading      *prometheus.GaugeVec   // labels: field
	CommandTotal       *prometheus.CounterVec // labels: cmd, result=ok|decode_error|apply_error
	CommandBytesTotal  prometheus.Counter
	StoreOpsTotal      *prometheus.CounterVec // labels: op, result
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg prometheus.Registerer) *AppMetrics {
	m := &AppMetrics{
		SensorFramesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pms_frames_total",
			Help: "Total PMS5003 frames decoded.",
		}),
		SensorResyncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pms_resync_total",
			Help: "Bytes discarded while resynchronizing the PMS5003 stream.",
		}, []string{"reason"}),
		SensorBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pms_bytes_read_total",
			Help: "Total bytes read from the sensor serial link.",
		}),
		SensorSessionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pms_reader_sessions_total",
			Help: "Sensor reader sessions by outcome.",
		}, []string{"result"}),
		SensorReading: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pms_reading",
			Help: "Most recent PMS5003 reading by field.",
		}, []string{"field"}),
		CommandTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "control_command_total",
			Help: "Control commands processed by name and result.",
		}, []string{"cmd", "result"}),
		CommandBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "control_bytes_received_total",
			Help: "Total bytes received on the control channel.",
		}),
		StoreOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "config_store_ops_total",
			Help: "Config store operations by op and result.",
		}, []string{"op", "result"}),
	}
	reg.MustRegister(
		m.SensorFramesTotal, m.SensorResyncTotal, m.SensorBytesTotal, m.SensorSessionTotal,
		m.SensorReading, m.CommandTotal, m.CommandBytesTotal, m.StoreOpsTotal,
	)
	return m
}
