// Package metrics registers the table's Prometheus instruments. Every
// helper is a no-op until Init runs, so unit tests never need a
// registry.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "bridgetable_"

	// ResultSuccess labels a successful operation.
	ResultSuccess = "success"
	// ResultError labels a failed operation.
	ResultError = "error"

	// DirInbound labels frames read from a device.
	DirInbound = "in"
	// DirOutbound labels frames written to a device.
	DirOutbound = "out"
)

var (
	registerOnce sync.Once

	eventsPublished *prometheus.CounterVec
	ruleViolations  *prometheus.CounterVec

	deviceFrames     *prometheus.CounterVec
	deviceReconnects *prometheus.CounterVec
	handshakeLatency *prometheus.HistogramVec
	pacingWait       prometheus.Histogram

	handsCompleted prometheus.Counter
	reportExports  *prometheus.CounterVec
)

// Init registers the table metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		eventsPublished = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_published_total",
				Help: "Total bus events published by type",
			},
			[]string{"type"},
		)
		ruleViolations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rule_violations_total",
				Help: "Total rejected plays by violation kind",
			},
			[]string{"kind"},
		)
		deviceFrames = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "device_frames_total",
				Help: "Total serial frames by device and direction",
			},
			[]string{"device", "dir"},
		)
		deviceReconnects = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "device_reconnects_total",
				Help: "Total reconnect attempts by device",
			},
			[]string{"device"},
		)
		handshakeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "handshake_latency_seconds",
				Help:    "Device identify/ready handshake latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		pacingWait = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "pacing_wait_seconds",
				Help:    "Seconds slept before a send to honour audio reserves",
				Buckets: prometheus.DefBuckets,
			},
		)
		handsCompleted = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "hands_completed_total",
				Help: "Total hands played to thirteen tricks",
			},
		)
		reportExports = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_exports_total",
				Help: "Total session report exports by format and result",
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			eventsPublished,
			ruleViolations,
			deviceFrames,
			deviceReconnects,
			handshakeLatency,
			pacingWait,
			handsCompleted,
			reportExports,
		)
	})
}

// CountEventPublished counts one published bus event.
func CountEventPublished(eventType string) {
	if eventsPublished == nil {
		return
	}
	eventsPublished.WithLabelValues(eventType).Inc()
}

// CountRuleViolation counts one rejected play.
func CountRuleViolation(kind string) {
	if ruleViolations == nil {
		return
	}
	ruleViolations.WithLabelValues(kind).Inc()
}

// CountDeviceFrame counts one serial frame.
func CountDeviceFrame(device, dir string) {
	if deviceFrames == nil {
		return
	}
	deviceFrames.WithLabelValues(device, dir).Inc()
}

// CountReconnect counts one reconnect attempt.
func CountReconnect(device string) {
	if deviceReconnects == nil {
		return
	}
	deviceReconnects.WithLabelValues(device).Inc()
}

// ObserveHandshake records one handshake duration.
func ObserveHandshake(result string, d time.Duration) {
	if handshakeLatency == nil {
		return
	}
	handshakeLatency.WithLabelValues(result).Observe(d.Seconds())
}

// ObservePacingWait records one pre-send pacing sleep.
func ObservePacingWait(d time.Duration) {
	if pacingWait == nil {
		return
	}
	pacingWait.Observe(d.Seconds())
}

// CountHandCompleted counts one finished hand.
func CountHandCompleted() {
	if handsCompleted == nil {
		return
	}
	handsCompleted.Inc()
}

// CountReportExport counts one session report export.
func CountReportExport(format, result string) {
	if reportExports == nil {
		return
	}
	reportExports.WithLabelValues(format, result).Inc()
}
