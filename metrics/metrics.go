// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics holds the Prometheus collectors for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "influence_http_requests_total",
		Help: "Total HTTP requests by method, route and status code",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "influence_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "route"})

	TrainingRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "influence_training_runs_total",
		Help: "Model training runs by result (success, rejected, error)",
	}, []string{"result"})

	TrainingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "influence_training_duration_seconds",
		Help:    "Model training duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	Predictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "influence_predictions_total",
		Help: "Predictions served by influence level",
	}, []string{"level"})

	DatasetUploads = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "influence_dataset_uploads_total",
		Help: "Total datasets uploaded",
	})

	DatasetUploadBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "influence_dataset_upload_bytes",
		Help:    "Size of uploaded datasets in bytes",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, TrainingRuns, TrainingDuration,
		Predictions, DatasetUploads, DatasetUploadBytes)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordTraining records a training run. result is success, rejected or error.
func RecordTraining(result string, duration time.Duration) {
	TrainingRuns.WithLabelValues(result).Inc()
	TrainingDuration.Observe(duration.Seconds())
}

func RecordPrediction(level string) { Predictions.WithLabelValues(level).Inc() }

func RecordUpload(size int64) {
	DatasetUploads.Inc()
	DatasetUploadBytes.Observe(float64(size))
}
