package stats

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tasks"

const (
	EntitiesCreated     = "entities_created"
	EntitiesDeleted     = "entities_deleted"
	MessagesAppended    = "messages_appended"
	TableDeleteFailures = "table_delete_failures"
)

type StatsProvider interface {
	Incr(name, kind string)
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

type StatsUpdater struct {
	registry *prometheus.Registry

	mu       sync.RWMutex
	counters map[string]*prometheus.CounterVec

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewStatsUpdater creates a stats updater on a private registry and serves it
// from GET /metrics on mux.
func NewStatsUpdater(mux *http.ServeMux) *StatsUpdater {
	su := &StatsUpdater{
		registry: prometheus.NewRegistry(),
		counters: make(map[string]*prometheus.CounterVec),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	su.initializeMetrics()

	if mux != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(su.registry, promhttp.HandlerOpts{}))
	}

	return su
}

func (su *StatsUpdater) initializeMetrics() {
	startTime := time.Now()
	su.registry.MustRegister(
		su.requests,
		su.duration,
		collectors.NewGoCollector(),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Seconds since the process started",
		}, func() float64 {
			return time.Since(startTime).Seconds()
		}),
	)

	for _, name := range []string{EntitiesCreated, EntitiesDeleted, MessagesAppended, TableDeleteFailures} {
		su.RegisterMetric(name)
	}
}

// RegisterMetric adds a counter labelled by entity kind.
func (su *StatsUpdater) RegisterMetric(name string) {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name + "_total",
		Help:      "Count of " + strings.ReplaceAll(name, "_", " ") + " by entity kind",
	}, []string{"kind"})
	su.registry.MustRegister(c)

	su.mu.Lock()
	su.counters[name] = c
	su.mu.Unlock()
}

func (su *StatsUpdater) Incr(name, kind string) {
	su.mu.RLock()
	c, ok := su.counters[name]
	su.mu.RUnlock()
	if !ok {
		panic("metric not found: " + name)
	}

	c.WithLabelValues(kind).Inc()
}

func (su *StatsUpdater) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	su.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	su.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Gatherer exposes the registry to tests and alternative exporters.
func (su *StatsUpdater) Gatherer() prometheus.Gatherer {
	return su.registry
}
