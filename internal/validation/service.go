package validation

import (
	"context"
	"os"
	"time"

	"github.com/velvetrowhq/velvetrow-backend/internal/media"
	"github.com/velvetrowhq/velvetrow-backend/pkg/config"
)

// Status is the tri-state health value. Precedence when aggregating is
// unhealthy > degraded > healthy.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// EnvironmentCheck reports which recognized variables are missing. Required
// names make the check invalid; optional names only produce warnings.
type EnvironmentCheck struct {
	IsValid  bool     `json:"is_valid"`
	Missing  []string `json:"missing,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// ConnectionCheck reports one remote dependency probe.
type ConnectionCheck struct {
	IsValid bool   `json:"is_valid"`
	Error   string `json:"error,omitempty"`
}

// HealthReport aggregates every component check with the overall status.
type HealthReport struct {
	Status      Status           `json:"status"`
	Environment EnvironmentCheck `json:"environment"`
	Cloudinary  ConnectionCheck  `json:"cloudinary"`
	MongoDB     ConnectionCheck  `json:"mongodb"`
	CheckedAt   time.Time        `json:"checked_at"`
}

type assetProbe interface {
	ValidateConfig() bool
	Ping(ctx context.Context) error
}

type docStoreProbe interface {
	Configured() bool
	Connect(ctx context.Context) error
	Ping(ctx context.Context) error
}

// Service runs configuration and dependency diagnostics. It never panics on
// a missing dependency; a broken environment is a reportable state, not a
// crash.
type Service struct {
	assets assetProbe
	mongo  docStoreProbe
	policy media.UploadRequestPolicy

	lookupEnv func(string) (string, bool)
	now       func() time.Time
}

// NewService wires the diagnostics surface. The mongo probe may be nil when
// no document store is configured.
func NewService(assets assetProbe, mongo docStoreProbe, policy media.UploadRequestPolicy) *Service {
	return &Service{
		assets:    assets,
		mongo:     mongo,
		policy:    policy,
		lookupEnv: os.LookupEnv,
		now:       time.Now,
	}
}

// ValidateEnvironment checks the recognized variable names. Pure over
// process configuration; no network traffic.
func (s *Service) ValidateEnvironment() EnvironmentCheck {
	check := EnvironmentCheck{IsValid: true}
	for _, name := range config.RequiredEnvVars {
		if value, ok := s.lookupEnv(name); !ok || value == "" {
			check.Missing = append(check.Missing, name)
			check.IsValid = false
		}
	}
	for _, name := range config.OptionalEnvVars {
		if value, ok := s.lookupEnv(name); !ok || value == "" {
			check.Warnings = append(check.Warnings, name+" is not set; using default behavior")
		}
	}
	return check
}

// ValidateCloudinaryConnection probes the asset store. A configuration gap
// short-circuits before any network call.
func (s *Service) ValidateCloudinaryConnection(ctx context.Context) ConnectionCheck {
	if s.assets == nil || !s.assets.ValidateConfig() {
		return ConnectionCheck{Error: "cloudinary credentials are not fully configured"}
	}
	if err := s.assets.Ping(ctx); err != nil {
		return ConnectionCheck{Error: err.Error()}
	}
	return ConnectionCheck{IsValid: true}
}

// ValidateMongoConnection establishes the lazy connection if needed and
// verifies it responds. Repeat calls reuse the existing connection.
func (s *Service) ValidateMongoConnection(ctx context.Context) ConnectionCheck {
	if s.mongo == nil || !s.mongo.Configured() {
		return ConnectionCheck{Error: "mongodb connection string is not configured"}
	}
	if err := s.mongo.Connect(ctx); err != nil {
		return ConnectionCheck{Error: err.Error()}
	}
	if err := s.mongo.Ping(ctx); err != nil {
		return ConnectionCheck{Error: err.Error()}
	}
	return ConnectionCheck{IsValid: true}
}

// ValidateFileUpload runs the route-level allow-list over the file
// descriptor and reports every violated rule.
func (s *Service) ValidateFileUpload(file media.FileInfo) media.ValidationResult {
	return s.policy.Validate(file)
}

// PerformHealthCheck aggregates the component checks. The MongoDB document
// store is non-critical, so its failure alone only degrades the status;
// environment or Cloudinary failures dominate and mark the service
// unhealthy.
func (s *Service) PerformHealthCheck(ctx context.Context) HealthReport {
	report := HealthReport{
		Environment: s.ValidateEnvironment(),
		Cloudinary:  s.ValidateCloudinaryConnection(ctx),
		MongoDB:     s.ValidateMongoConnection(ctx),
		CheckedAt:   s.now().UTC(),
	}

	report.Status = StatusHealthy
	if !report.MongoDB.IsValid {
		report.Status = StatusDegraded
	}
	if !report.Environment.IsValid || !report.Cloudinary.IsValid {
		report.Status = StatusUnhealthy
	}
	return report
}

// HTTPStatus maps the tri-state status onto the wire codes monitoring
// expects.
func (s Status) HTTPStatus() int {
	switch s {
	case StatusHealthy:
		return 200
	case StatusDegraded:
		return 206
	default:
		return 500
	}
}
