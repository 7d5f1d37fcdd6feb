// Package metrics содержит метрики Prometheus сервера обновлений.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics хранит коллекторы сервера.
type Metrics struct {
	ResolutionsTotal    *prometheus.CounterVec
	CatalogCandidates   prometheus.Histogram
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New создает коллекторы и регистрирует их в reg.
// Для тестов передается свежий prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ResolutionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hot_updater_resolutions_total",
				Help: "Количество решений об обновлении по стратегии и итогу",
			},
			[]string{"strategy", "status"},
		),
		CatalogCandidates: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hot_updater_catalog_candidates",
				Help:    "Размер выборки каталога, переданной движку",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
			},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hot_updater_http_requests_total",
				Help: "Количество HTTP-запросов",
			},
			[]string{"method", "route", "code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hot_updater_http_request_duration_seconds",
				Help:    "Длительность HTTP-запросов в секундах",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// RecordResolution учитывает одно решение движка.
func (m *Metrics) RecordResolution(strategy, status string, candidates int) {
	m.ResolutionsTotal.WithLabelValues(strategy, status).Inc()
	m.CatalogCandidates.Observe(float64(candidates))
}

// RecordHTTPRequest учитывает завершенный HTTP-запрос.
func (m *Metrics) RecordHTTPRequest(method, route, code string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
