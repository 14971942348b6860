// Package monitor exposes service metrics to Prometheus.
package monitor

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	alertsLoaded      prometheus.Gauge
	detailTableErrors prometheus.Gauge
	skippedRows       prometheus.Gauge
	activeSessions    prometheus.Gauge
	publishedRules    *prometheus.GaugeVec
	rulesPublished    prometheus.Counter
	digestsSent       *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loaneye_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loaneye_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		alertsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "loaneye_alerts_loaded",
			Help: "Number of alert records in the store",
		}),
		detailTableErrors: factory.NewGauge(prometheus.GaugeOpts{
			Name: "loaneye_detail_table_errors",
			Help: "Number of detail tables rejected at load",
		}),
		skippedRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "loaneye_alert_rows_skipped",
			Help: "Alert rows skipped for a missing id or signal code",
		}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "loaneye_rule_sessions_active",
			Help: "Number of live rule-building sessions",
		}),
		publishedRules: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "loaneye_published_rules",
				Help: "Number of published rules by state",
			},
			[]string{"state"},
		),
		rulesPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "loaneye_rules_published_total",
			Help: "Total number of rules published from sessions",
		}),
		digestsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loaneye_digests_sent_total",
				Help: "Total number of dashboard digests sent",
			},
			[]string{"channel"},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StoreLoaded records the outcome of loading the alert store.
func (m *Metrics) StoreLoaded(alerts, detailErrors, skipped int) {
	m.alertsLoaded.Set(float64(alerts))
	m.detailTableErrors.Set(float64(detailErrors))
	m.skippedRows.Set(float64(skipped))
}

func (m *Metrics) RulesPublished(n int) {
	m.rulesPublished.Add(float64(n))
}

func (m *Metrics) DigestSent(channel string) {
	m.digestsSent.WithLabelValues(channel).Inc()
}

// Middleware counts and times every request by its route pattern.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
