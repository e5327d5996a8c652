// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	LinksCreated   prometheus.Counter
	Clicks         *prometheus.CounterVec   // result: recorded, conflict, unfound, error
	ClickAttempts  prometheus.Histogram     // попыток на один записанный клик
	EmbedChecks    *prometheus.CounterVec   // mode, reason
	ProbeDuration  prometheus.Histogram
	HTTPRequests   *prometheus.CounterVec   // method, status
	HTTPDuration   *prometheus.HistogramVec // method
	ActiveWatchers prometheus.Gauge
}

// New registers every collector on a fresh registry, so several instances
// can live in one process (tests).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		LinksCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "linkframe_links_created_total",
			Help: "Количество созданных коротких ссылок",
		}),
		Clicks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "linkframe_clicks_total",
			Help: "Клики по коротким ссылкам по результату записи",
		}, []string{"result"}),
		ClickAttempts: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkframe_click_commit_attempts",
			Help:    "Количество попыток коммита на один клик",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		}),
		EmbedChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "linkframe_embed_checks_total",
			Help: "Результаты проверки встраиваемости",
		}, []string{"mode", "reason"}),
		ProbeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkframe_embed_probe_duration_seconds",
			Help:    "Время запроса к проверяемому сайту",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "linkframe_http_requests_total",
			Help: "HTTP запросы по методу и статусу",
		}, []string{"method", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "linkframe_http_request_duration_seconds",
			Help:    "Время обработки HTTP запроса",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		ActiveWatchers: f.NewGauge(prometheus.GaugeOpts{
			Name: "linkframe_active_watchers",
			Help: "Открытые SSE подписки на ссылки",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
