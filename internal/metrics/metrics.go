package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timesheet_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timesheet_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// 状态转换，from/to 为记录状态
	entryTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timesheet_entry_transitions_total",
			Help: "Total number of timesheet entry status transitions",
		},
		[]string{"from", "to"},
	)

	// 校验失败按类型统计：field、leave_day、overlap
	validationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timesheet_validation_failures_total",
			Help: "Total number of rejected entry candidates by error kind",
		},
		[]string{"kind"},
	)

	importRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timesheet_import_rows_total",
			Help: "Bulk import rows by outcome",
		},
		[]string{"outcome"}, // admitted, rejected, inserted, failed
	)

	importBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timesheet_import_batches_total",
			Help: "Bulk import insert batches by result",
		},
		[]string{"result"},
	)

	databaseConnectionsInUse = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "timesheet_database_connections_in_use",
			Help: "Number of database connections currently in use",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "timesheet_database_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

var once sync.Once

func init() {
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(entryTransitionsTotal)
	prometheus.MustRegister(validationFailuresTotal)
	prometheus.MustRegister(importRowsTotal)
	prometheus.MustRegister(importBatchesTotal)
	prometheus.MustRegister(databaseConnectionsInUse)
	prometheus.MustRegister(databaseConnectionsIdle)

	once.Do(func() {
		// 默认 registry 可能已经带有这两个 collector
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
		_ = prometheus.Register(prometheus.NewGoCollector())
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordAPIRequest(method, route string, status int, seconds float64) {
	apiRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	apiRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

func RecordTransition(from, to string) {
	entryTransitionsTotal.WithLabelValues(from, to).Inc()
}

func RecordValidationFailure(kind string) {
	validationFailuresTotal.WithLabelValues(kind).Inc()
}

func RecordImportRows(outcome string, n int) {
	if n > 0 {
		importRowsTotal.WithLabelValues(outcome).Add(float64(n))
	}
}

// RecordImportBatch 可以直接作为批量写入的回调
func RecordImportBatch(size int, err error) {
	if err != nil {
		importBatchesTotal.WithLabelValues("failed").Inc()
		RecordImportRows("failed", size)
		return
	}
	importBatchesTotal.WithLabelValues("inserted").Inc()
	RecordImportRows("inserted", size)
}

func UpdateDatabaseConnections(db *sql.DB) {
	if db == nil {
		return
	}
	stats := db.Stats()
	databaseConnectionsInUse.Set(float64(stats.InUse))
	databaseConnectionsIdle.Set(float64(stats.Idle))
}
