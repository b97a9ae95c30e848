package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/velvetrowhq/velvetrow-backend/api/controllers"
	"github.com/velvetrowhq/velvetrow-backend/api/middleware"
	"github.com/velvetrowhq/velvetrow-backend/internal/media"
	"github.com/velvetrowhq/velvetrow-backend/internal/validation"
	"github.com/velvetrowhq/velvetrow-backend/pkg/config"
	"github.com/velvetrowhq/velvetrow-backend/pkg/logger"
	"github.com/velvetrowhq/velvetrow-backend/pkg/metrics"
	"github.com/velvetrowhq/velvetrow-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface needs. RedisClient may be
// nil; idempotency and rate limiting then switch off.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	RedisClient   *redis.Client
	MediaService  media.Service
	Validation    *validation.Service
	MediaMetrics  *metrics.MediaMetrics
	MetricsGather prometheus.Gatherer
	// ReadyProbes are pinged by GET /health/ready; nil entries are skipped.
	ReadyProbes map[string]controllers.Pinger
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	uploadPolicy := media.NewUploadRequestPolicy(cfg.Media.MaxUploadBytes)
	mediaDeps := controllers.MediaDeps{
		Service:  p.MediaService,
		Policy:   uploadPolicy,
		Metrics:  p.MediaMetrics,
		MaxFiles: cfg.Media.MaxFilesPerRequest,
		Logger:   logg,
	}

	rateLimitPolicy := middleware.NewUploadRateLimitPolicy(
		"media_upload",
		cfg.UploadRateLimit.Window,
		cfg.UploadRateLimit.IPLimit,
		cfg.UploadRateLimit.UserLimit,
	)

	// Interface-typed nils would defeat the middleware nil checks; only
	// assign when a client is actually present.
	var idempotencyStore redis.IdempotencyStore
	var rateLimitStore middleware.RateLimiterStore
	if p.RedisClient != nil {
		idempotencyStore = p.RedisClient
		rateLimitStore = p.RedisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/", controllers.Health(p.Validation, cfg))
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.ReadyProbes))
		r.Get("/media", controllers.MediaHealth(p.Validation, cfg))
		r.Post("/validate-file", controllers.ValidateFile(p.Validation, logg))
	})

	if p.MetricsGather != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.MetricsGather, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/media", func(r chi.Router) {
			r.Get("/search", controllers.MediaSearch(p.MediaService, logg))
			r.Get("/context/{context}", controllers.MediaByContext(p.MediaService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.BodyLimit(uploadLimitWithOverhead(cfg.Media.MaxUploadBytes, cfg.Media.MaxFilesPerRequest)))
				r.Use(middleware.UploadRateLimit(rateLimitPolicy, rateLimitStore, logg))
				r.Post("/upload", controllers.MediaUpload(mediaDeps))
				r.Post("/upload/multiple", controllers.MediaUploadBatch(mediaDeps))
			})

			r.Route("/product/{productId}", func(r chi.Router) {
				r.Get("/", controllers.ProductMedia(p.MediaService, logg))
				r.Get("/primary", controllers.ProductPrimaryMedia(p.MediaService, logg))
			})

			r.Route("/{mediaId}", func(r chi.Router) {
				r.Get("/", controllers.MediaGet(p.MediaService, logg))
				r.Patch("/", controllers.MediaUpdate(p.MediaService, logg))
				r.Delete("/", controllers.MediaDelete(p.MediaService, p.MediaMetrics, logg))
				r.Get("/variants", controllers.MediaVariants(p.MediaService, logg))
			})
		})
	})

	return r
}

// uploadLimitWithOverhead leaves room for multipart framing and the batch
// case on top of the per-file cap.
func uploadLimitWithOverhead(maxUploadBytes int64, maxFiles int) int64 {
	if maxUploadBytes <= 0 {
		return 0
	}
	if maxFiles <= 0 {
		maxFiles = 1
	}
	return maxUploadBytes*int64(maxFiles) + 1<<20
}
