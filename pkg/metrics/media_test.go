package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestMediaMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMediaMetrics(reg)

	metrics.IncUpload("image", true)
	metrics.IncUpload("image", false)
	metrics.IncDelete(true)
	metrics.ObserveUploadDuration("image", 250*time.Millisecond)
	metrics.IncVariantFailure("video")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "media_uploads_total", "outcome", "success"); err != nil {
		t.Fatalf("fetch uploads: %v", err)
	} else if got != 1 {
		t.Fatalf("expected uploads success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "media_uploads_total", "outcome", "failure"); err != nil {
		t.Fatalf("fetch failed uploads: %v", err)
	} else if got != 1 {
		t.Fatalf("expected uploads failure=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "media_deletes_total", "outcome", "success"); err != nil {
		t.Fatalf("fetch deletes: %v", err)
	} else if got != 1 {
		t.Fatalf("expected deletes=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "media_upload_duration_seconds", "media_type", "image"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "media_variant_failures_total", "media_type", "video"); err != nil {
		t.Fatalf("fetch variant failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected variant failures=1, got %f", got)
	}
}

func TestMediaMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewMediaMetrics(nil)
	metrics.IncUpload("image", true)
	metrics.IncDelete(false)
	metrics.ObserveUploadDuration("video", time.Second)
	metrics.IncVariantFailure("image")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
