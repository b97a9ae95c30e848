package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MediaMetrics records upload and delete activity against the asset store.
type MediaMetrics struct {
	uploads         *prometheus.CounterVec
	deletes         *prometheus.CounterVec
	uploadDuration  *prometheus.HistogramVec
	variantFailures *prometheus.CounterVec
}

// NewMediaMetrics registers the media metrics on the provided registerer.
func NewMediaMetrics(reg prometheus.Registerer) *MediaMetrics {
	if reg == nil {
		return &MediaMetrics{}
	}
	uploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "media_uploads_total",
		Help: "Media uploads by media type and outcome.",
	}, []string{"media_type", "outcome"})
	deletes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "media_deletes_total",
		Help: "Media deletions by outcome.",
	}, []string{"outcome"})
	uploadDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "media_upload_duration_seconds",
		Help:    "End-to-end upload duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"media_type"})
	variantFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "media_variant_failures_total",
		Help: "Variant generation failures by media type.",
	}, []string{"media_type"})
	reg.MustRegister(uploads, deletes, uploadDuration, variantFailures)
	return &MediaMetrics{
		uploads:         uploads,
		deletes:         deletes,
		uploadDuration:  uploadDuration,
		variantFailures: variantFailures,
	}
}

// IncUpload increments the upload counter.
func (m *MediaMetrics) IncUpload(mediaType string, success bool) {
	if m == nil || m.uploads == nil {
		return
	}
	m.uploads.WithLabelValues(normalizeLabel(mediaType), outcomeLabel(success)).Inc()
}

// IncDelete increments the delete counter.
func (m *MediaMetrics) IncDelete(success bool) {
	if m == nil || m.deletes == nil {
		return
	}
	m.deletes.WithLabelValues(outcomeLabel(success)).Inc()
}

// ObserveUploadDuration records one end-to-end upload.
func (m *MediaMetrics) ObserveUploadDuration(mediaType string, duration time.Duration) {
	if m == nil || m.uploadDuration == nil {
		return
	}
	m.uploadDuration.WithLabelValues(normalizeLabel(mediaType)).Observe(duration.Seconds())
}

// IncVariantFailure counts a variant generation subset failure.
func (m *MediaMetrics) IncVariantFailure(mediaType string) {
	if m == nil || m.variantFailures == nil {
		return
	}
	m.variantFailures.WithLabelValues(normalizeLabel(mediaType)).Inc()
}

func outcomeLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
