package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Midjourney-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "midjourney_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "midjourney_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 240, 400},
		},
		[]string{"method", "endpoint"},
	)

	// Generations by mode (bot, reference, fallback) and outcome
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "midjourney_api",
			Name:      "generations_total",
			Help:      "Total image generations",
		},
		[]string{"mode", "status"},
	)

	// Phase duration (imagine, upscale, download)
	PhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "midjourney_api",
			Name:      "phase_duration_seconds",
			Help:      "Generation phase duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 90, 120, 180},
		},
		[]string{"phase", "status"},
	)

	// Phase timeouts
	PhaseTimeoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "midjourney_api",
			Name:      "phase_timeouts_total",
			Help:      "Generation phases aborted by their deadline",
		},
		[]string{"phase"},
	)

	// Fallback provider attempts
	FallbackAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "midjourney_api",
			Name:      "fallback_attempts_total",
			Help:      "Fallback provider attempts",
		},
		[]string{"provider", "status"},
	)

	// Reference image publications
	ReferenceUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "midjourney_api",
			Name:      "reference_uploads_total",
			Help:      "Reference image publications by outcome",
		},
		[]string{"target", "status"},
	)

	// Upload bytes counter
	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "midjourney_api",
			Name:      "upload_bytes_total",
			Help:      "Total bytes received as reference uploads",
		},
	)

	// Janitor sweeps
	JanitorRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "midjourney_api",
			Name:      "janitor_removed_files_total",
			Help:      "Stale upload files removed by the janitor",
		},
	)

	// S3 operations counter
	S3OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "midjourney_api",
			Name:      "s3_operations_total",
			Help:      "Total S3 operations",
		},
		[]string{"operation", "status"},
	)

	// Discord connection state
	DiscordConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jan",
			Subsystem: "midjourney_api",
			Name:      "discord_connected",
			Help:      "1 when the Discord gateway session is open",
		},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordGeneration records the outcome of a generation request
func RecordGeneration(mode, status string) {
	GenerationsTotal.WithLabelValues(mode, status).Inc()
}

// RecordPhase records the duration of one generation phase
func RecordPhase(phase, status string, durationSec float64) {
	PhaseDuration.WithLabelValues(phase, status).Observe(durationSec)
	if status == "timeout" {
		PhaseTimeoutsTotal.WithLabelValues(phase).Inc()
	}
}

// RecordFallbackAttempt records one fallback provider attempt
func RecordFallbackAttempt(provider, status string) {
	FallbackAttemptsTotal.WithLabelValues(provider, status).Inc()
}

// RecordReferenceUpload records a reference image publication
func RecordReferenceUpload(target, status string) {
	ReferenceUploadsTotal.WithLabelValues(target, status).Inc()
}

// RecordUpload counts bytes received as reference uploads
func RecordUpload(bytes int64) {
	UploadBytesTotal.Add(float64(bytes))
}

// RecordS3Operation records an S3 operation
func RecordS3Operation(operation, status string) {
	S3OperationsTotal.WithLabelValues(operation, status).Inc()
}

// SetDiscordConnected flips the connection gauge
func SetDiscordConnected(connected bool) {
	if connected {
		DiscordConnected.Set(1)
		return
	}
	DiscordConnected.Set(0)
}

// RecordJanitorRemoved counts uploads deleted by the janitor.
func RecordJanitorRemoved(count int) {
	if count > 0 {
		JanitorRemovedTotal.Add(float64(count))
	}
}
