// Package telemetry holds the prometheus metrics and process logger setup.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"queryquest/internal/quest"
)

const namespace = "queryquest"

// Metrics implements quest.Recorder on its own registry.
type Metrics struct {
	registry          *prometheus.Registry
	queries           *prometheus.CounterVec
	queryDuration     *prometheus.HistogramVec
	missionsCompleted *prometheus.CounterVec
	levelUps          prometheus.Counter
}

var _ quest.Recorder = (*Metrics)(nil)

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Query submissions by outcome status and success.",
		}, []string{"status", "success"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "End-to-end query submission latency.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"status"}),
		missionsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "missions_completed_total",
			Help:      "First-time mission completions.",
		}, []string{"mission"}),
		levelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "level_ups_total",
			Help:      "Player level-ups.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
		m.queries,
		m.queryDuration,
		m.missionsCompleted,
		m.levelUps,
	)
	return m
}

func (m *Metrics) QueryExecuted(status quest.Status, success bool, elapsed time.Duration) {
	m.queries.WithLabelValues(string(status), strconv.FormatBool(success)).Inc()
	m.queryDuration.WithLabelValues(string(status)).Observe(elapsed.Seconds())
}

func (m *Metrics) MissionCompleted(missionID string, levelsGained int) {
	m.missionsCompleted.WithLabelValues(missionID).Inc()
	if levelsGained > 0 {
		m.levelUps.Add(float64(levelsGained))
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
