package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/velvetrowhq/velvetrow-backend/internal/media"
	"github.com/velvetrowhq/velvetrow-backend/internal/validation"
	"github.com/velvetrowhq/velvetrow-backend/pkg/config"
)

type stubAsset struct {
	configured bool
	pingErr    error
}

func (s stubAsset) ValidateConfig() bool {
	return s.configured
}

func (s stubAsset) Ping(context.Context) error {
	return s.pingErr
}

type stubDocStore struct {
	configured bool
	pingErr    error
}

func (s stubDocStore) Configured() bool {
	return s.configured
}

func (s stubDocStore) Connect(context.Context) error {
	return nil
}

func (s stubDocStore) Ping(context.Context) error {
	return s.pingErr
}

func setFullEnv(t *testing.T) {
	t.Helper()
	for _, name := range config.RequiredEnvVars {
		t.Setenv(name, "set-for-test")
	}
	for _, name := range config.OptionalEnvVars {
		t.Setenv(name, "set-for-test")
	}
}

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test"}}
}

func TestHealthLive(t *testing.T) {
	w := httptest.NewRecorder()
	HealthLive(testConfig())(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	if got := w.Header().Get("X-VelvetRow-Env"); got != "test" {
		t.Fatalf("expected env header, got %q", got)
	}
}

type stubProbe struct {
	err error
}

func (s stubProbe) Ping(context.Context) error {
	return s.err
}

func TestHealthReadyAllProbesPass(t *testing.T) {
	probes := map[string]Pinger{
		"postgres": stubProbe{},
		"redis":    stubProbe{},
		"skipped":  nil,
	}
	w := httptest.NewRecorder()
	HealthReady(testConfig(), nil, probes)(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
}

func TestHealthReadyFailingProbe(t *testing.T) {
	probes := map[string]Pinger{
		"postgres": stubProbe{},
		"redis":    stubProbe{err: errors.New("connection refused")},
	}
	w := httptest.NewRecorder()
	HealthReady(testConfig(), nil, probes)(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", w.Code)
	}
}

func TestHealthHealthy(t *testing.T) {
	setFullEnv(t)
	svc := validation.NewService(stubAsset{configured: true}, stubDocStore{configured: true}, media.NewUploadRequestPolicy(0))

	w := httptest.NewRecorder()
	Health(svc, testConfig())(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
}

func TestHealthDegradedOnMongoFailure(t *testing.T) {
	setFullEnv(t)
	svc := validation.NewService(
		stubAsset{configured: true},
		stubDocStore{configured: true, pingErr: errors.New("no reachable servers")},
		media.NewUploadRequestPolicy(0),
	)

	w := httptest.NewRecorder()
	Health(svc, testConfig())(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusPartialContent {
		t.Fatalf("expected 206 got %d: %s", w.Code, w.Body.String())
	}
}

func TestHealthUnhealthyOnCloudinaryFailure(t *testing.T) {
	setFullEnv(t)
	svc := validation.NewService(
		stubAsset{configured: false},
		stubDocStore{configured: true},
		media.NewUploadRequestPolicy(0),
	)

	w := httptest.NewRecorder()
	Health(svc, testConfig())(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d: %s", w.Code, w.Body.String())
	}
}

func TestMediaHealthSmokeAlwaysResponds(t *testing.T) {
	setFullEnv(t)
	svc := validation.NewService(
		stubAsset{configured: true},
		stubDocStore{configured: true, pingErr: errors.New("no reachable servers")},
		media.NewUploadRequestPolicy(0),
	)

	w := httptest.NewRecorder()
	MediaHealth(svc, testConfig())(w, httptest.NewRequest(http.MethodGet, "/health/media", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Data struct {
			Cloudinary     validation.ConnectionCheck `json:"cloudinary"`
			MongoDB        validation.ConnectionCheck `json:"mongodb"`
			FileValidation media.ValidationResult     `json:"file_validation"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Cloudinary.IsValid {
		t.Fatalf("cloudinary check should pass")
	}
	if envelope.Data.MongoDB.IsValid {
		t.Fatalf("mongo check should fail")
	}
	if !envelope.Data.FileValidation.IsValid {
		t.Fatalf("sample jpeg must pass validation: %v", envelope.Data.FileValidation.Errors)
	}
}

func TestValidateFileReportsPolicyErrors(t *testing.T) {
	svc := validation.NewService(stubAsset{configured: true}, nil, media.NewUploadRequestPolicy(0))

	body := bytes.NewBufferString(`{"originalname":"a.gif","mimetype":"image/gif","size":100}`)
	req := httptest.NewRequest(http.MethodPost, "/health/validate-file", body)
	w := httptest.NewRecorder()
	ValidateFile(svc, nil)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Data struct {
			Validation media.ValidationResult `json:"validation"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Validation.IsValid {
		t.Fatalf("gif must fail validation")
	}
	if len(envelope.Data.Validation.Errors) != 2 {
		t.Fatalf("expected mime and extension errors, got %v", envelope.Data.Validation.Errors)
	}
}

func TestValidateFileRejectsMissingFields(t *testing.T) {
	svc := validation.NewService(stubAsset{configured: true}, nil, media.NewUploadRequestPolicy(0))

	body := bytes.NewBufferString(`{"originalname":"a.jpg"}`)
	req := httptest.NewRequest(http.MethodPost, "/health/validate-file", body)
	w := httptest.NewRecorder()
	ValidateFile(svc, nil)(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}
