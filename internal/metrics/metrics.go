// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/activity_recognizer/internal/motion"
)

// BufferStats is read at scrape time for the buffer gauges.
type BufferStats interface {
	Buffered(s motion.Sensor) int
	Dropped() uint64
}

// Metrics groups the recognizer's collectors on a private registry.
// All methods are safe on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	cycles          *prometheus.CounterVec
	classifyLatency prometheus.Histogram
	timelineLength  prometheus.Gauge
	activities      *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New registers the pipeline collectors. stats may be nil.
func New(stats BufferStats) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recognizer_cycles_total",
			Help: "Classification cycles by outcome.",
		}, []string{"outcome"}),
		classifyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "recognizer_classify_duration_seconds",
			Help:    "Round trip time of classification requests.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		timelineLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "recognizer_timeline_length",
			Help: "Number of activities recorded in the timeline.",
		}),
		activities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recognizer_activities_total",
			Help: "Activities appended to the timeline by label.",
		}, []string{"label"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.cycles,
		m.classifyLatency,
		m.timelineLength,
		m.activities,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
	)

	if stats != nil {
		buffered := prometheus.NewDesc("recognizer_buffered_readings",
			"Readings currently held in the ring buffers.", []string{"sensor"}, nil)
		m.registry.MustRegister(&bufferCollector{stats: stats, buffered: buffered,
			dropped: prometheus.NewDesc("recognizer_dropped_events_total",
				"Sensor events dropped because the ingest queue was full.", nil, nil)})
	}
	return m
}

type bufferCollector struct {
	stats    BufferStats
	buffered *prometheus.Desc
	dropped  *prometheus.Desc
}

func (c *bufferCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.buffered
	ch <- c.dropped
}

func (c *bufferCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range motion.Sensors {
		ch <- prometheus.MustNewConstMetric(c.buffered, prometheus.GaugeValue,
			float64(c.stats.Buffered(s)), s.String())
	}
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(c.stats.Dropped()))
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Cycle counts one classification cycle.
func (m *Metrics) Cycle(outcome string) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(outcome).Inc()
}

// ClassifyRequest observes one classifier round trip.
func (m *Metrics) ClassifyRequest(d time.Duration) {
	if m == nil {
		return
	}
	m.classifyLatency.Observe(d.Seconds())
}

// Activity records a new timeline entry.
func (m *Metrics) Activity(label string, timelineLen int) {
	if m == nil {
		return
	}
	m.activities.WithLabelValues(label).Inc()
	m.timelineLength.Set(float64(timelineLen))
}

// TimelineReset zeroes the timeline gauge.
func (m *Metrics) TimelineReset() {
	if m == nil {
		return
	}
	m.timelineLength.Set(0)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts requests and durations for route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		m.httpRequests.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
