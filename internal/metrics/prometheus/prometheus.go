package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"cashflow/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusCollector implements metrics.Collector for Prometheus.
type PrometheusCollector struct {
	upserts    *prometheus.CounterVec
	ledgerSize prometheus.Gauge

	loads       *prometheus.CounterVec
	saves       *prometheus.CounterVec
	saveLatency prometheus.Histogram

	publishes     *prometheus.CounterVec
	exports       *prometheus.CounterVec
	exportLatency prometheus.Histogram

	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

var _ metrics.Collector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates a new Prometheus metrics collector.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		upserts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_upserts_total",
				Help:      "Cell edits applied to the ledger by resulting change",
			},
			[]string{"change"},
		),
		ledgerSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ledger_transactions",
				Help:      "Number of transactions in the current ledger snapshot",
			},
		),
		loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "slot_loads_total",
				Help:      "Ledger loads from the persistence slot by outcome",
			},
			[]string{"outcome"},
		),
		saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "slot_saves_total",
				Help:      "Ledger saves to the persistence slot by status",
			},
			[]string{"status"},
		),
		saveLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "slot_save_duration_seconds",
				Help:      "Ledger save latency",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 15),
			},
		),
		publishes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "change_messages_published_total",
				Help:      "Change messages published to AMQP by status",
			},
			[]string{"status"},
		),
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sheet_exports_total",
				Help:      "Monthly summary exports by status",
			},
			[]string{"status"},
		),
		exportLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sheet_export_duration_seconds",
				Help:      "Monthly summary export latency",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// Register registers all metrics with the given Prometheus registry.
func (pc *PrometheusCollector) Register(registry *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		pc.upserts,
		pc.ledgerSize,
		pc.loads,
		pc.saves,
		pc.saveLatency,
		pc.publishes,
		pc.exports,
		pc.exportLatency,
		pc.requests,
		pc.requestLatency,
	}

	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}

	return nil
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func (pc *PrometheusCollector) RecordUpsert(change string) {
	pc.upserts.WithLabelValues(change).Inc()
}

func (pc *PrometheusCollector) RecordLedgerSize(size int) {
	pc.ledgerSize.Set(float64(size))
}

func (pc *PrometheusCollector) RecordLoad(outcome string) {
	pc.loads.WithLabelValues(outcome).Inc()
}

func (pc *PrometheusCollector) RecordSave(success bool, duration time.Duration) {
	pc.saves.WithLabelValues(status(success)).Inc()
	pc.saveLatency.Observe(duration.Seconds())
}

func (pc *PrometheusCollector) RecordPublish(success bool) {
	pc.publishes.WithLabelValues(status(success)).Inc()
}

func (pc *PrometheusCollector) RecordExport(success bool, duration time.Duration) {
	pc.exports.WithLabelValues(status(success)).Inc()
	pc.exportLatency.Observe(duration.Seconds())
}

func (pc *PrometheusCollector) RecordRequest(route string, code int, duration time.Duration) {
	pc.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	pc.requestLatency.WithLabelValues(route).Observe(duration.Seconds())
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
