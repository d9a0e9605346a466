package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session execution metrics
	GraphExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offload_graph_executions_total",
		Help: "The total number of graph executions by graph name and device",
	}, []string{"graph", "device"})

	GraphExecutionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "offload_graph_execution_duration_ms",
		Help:    "Duration of a single graph execution in milliseconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 20), // 10us to ~5s
	}, []string{"graph"})

	BufferTransfers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offload_buffer_transfers_total",
		Help: "The total number of buffer copies between host and device",
	}, []string{"graph", "direction"})

	// Migration server metrics
	DeviceMigrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offload_device_migrations_total",
		Help: "The total number of session device rebinds requested by peers",
	}, []string{"backend"})

	NormalizedSelectors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "offload_normalized_selectors_total",
		Help: "The total number of device selectors that were malformed or out of range and got normalized",
	})

	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "offload_active_connections",
		Help: "Number of migration connections currently open",
	})
)

// TransferDirection labels for BufferTransfers.
const (
	HostToDevice = "host_to_device"
	DeviceToHost = "device_to_host"
)
