package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "maintenance_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	alertEventsTotal *prometheus.CounterVec

	batchRunsTotal         *prometheus.CounterVec
	batchLatency           *prometheus.HistogramVec
	batchComponentsSkipped prometheus.Counter
	alertsSuppressedTotal  prometheus.Counter

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		alertEventsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alert_events_total",
				Help: "Total alert lifecycle events by type",
			},
			[]string{"event"},
		)
		batchRunsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alert_batch_runs_total",
				Help: "Total alert batch runs by result",
			},
			[]string{"result"},
		)
		batchLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "alert_batch_latency_seconds",
				Help:    "Alert batch evaluation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		batchComponentsSkipped = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "alert_batch_components_skipped_total",
				Help: "Total components skipped during batch evaluation",
			},
		)
		alertsSuppressedTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_suppressed_total",
				Help: "Total alert creates suppressed by the active-alert dedupe",
			},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alert_export_total",
				Help: "Total alert export operations by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "alert_export_latency_seconds",
				Help:    "Alert export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			alertEventsTotal,
			batchRunsTotal,
			batchLatency,
			batchComponentsSkipped,
			alertsSuppressedTotal,
			exportTotal,
			exportLatency,
		)

		registerDBMetrics(db, logger)
	})
}

// IncAlertEvent counts an alert lifecycle event (created, resolved, dismissed).
func IncAlertEvent(event string) {
	if alertEventsTotal == nil {
		return
	}
	alertEventsTotal.WithLabelValues(event).Inc()
}

// ObserveBatchRun records a finished batch run.
func ObserveBatchRun(err error, elapsed time.Duration) {
	if batchRunsTotal == nil || batchLatency == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	batchRunsTotal.WithLabelValues(result).Inc()
	batchLatency.WithLabelValues(result).Observe(elapsed.Seconds())
}

// IncBatchComponentSkipped counts a component excluded from a batch.
func IncBatchComponentSkipped() {
	if batchComponentsSkipped == nil {
		return
	}
	batchComponentsSkipped.Inc()
}

// IncAlertSuppressed counts a create suppressed by deduplication.
func IncAlertSuppressed() {
	if alertsSuppressedTotal == nil {
		return
	}
	alertsSuppressedTotal.Inc()
}

// ObserveExport records an alert export.
func ObserveExport(format string, err error, elapsed time.Duration) {
	if exportTotal == nil || exportLatency == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	exportTotal.WithLabelValues(format, result).Inc()
	exportLatency.WithLabelValues(format, result).Observe(elapsed.Seconds())
}

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	if db == nil {
		return
	}
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "alerts_active",
			Help: "Active alert records",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM alert_history WHERE status = 'active'")
		},
	))
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "alerts_expired_active",
			Help: "Active alert records past their expiry",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM alert_history WHERE status = 'active' AND expires_at < NOW()")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
