package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/velvetrowhq/velvetrow-backend/api/controllers"
	"github.com/velvetrowhq/velvetrow-backend/api/routes"
	"github.com/velvetrowhq/velvetrow-backend/internal/media"
	"github.com/velvetrowhq/velvetrow-backend/internal/validation"
	"github.com/velvetrowhq/velvetrow-backend/pkg/cloudinary"
	"github.com/velvetrowhq/velvetrow-backend/pkg/config"
	"github.com/velvetrowhq/velvetrow-backend/pkg/db"
	"github.com/velvetrowhq/velvetrow-backend/pkg/logger"
	"github.com/velvetrowhq/velvetrow-backend/pkg/metrics"
	"github.com/velvetrowhq/velvetrow-backend/pkg/migrate"
	"github.com/velvetrowhq/velvetrow-backend/pkg/mongodb"
	"github.com/velvetrowhq/velvetrow-backend/pkg/pubsub"
	"github.com/velvetrowhq/velvetrow-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	assets := cloudinary.NewClient(cfg.Cloudinary, logg)
	mongoClient := mongodb.New(cfg.Mongo, logg)
	defer func() {
		if err := mongoClient.Close(context.Background()); err != nil {
			logg.Error(context.Background(), "error closing mongodb", err)
		}
	}()

	probes := map[string]controllers.Pinger{}

	store, dbClient, err := buildStore(context.Background(), cfg, logg, mongoClient)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap media store", err)
		os.Exit(1)
	}
	if dbClient != nil {
		defer func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing database", err)
			}
		}()
		probes["postgres"] = dbClient
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Warn(logg.WithField(context.Background(), "error", err.Error()),
			"redis unavailable, idempotency and rate limiting disabled")
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		probes["redis"] = redisClient
	}

	var eventPublisher *media.Publisher
	if cfg.GCP.ProjectID != "" {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer pubsubClient.Close()

		eventPublisher, err = media.NewPublisher(pubsubClient.MediaEventsPublisher())
		if err != nil {
			logg.Error(context.Background(), "failed to create media event publisher", err)
			os.Exit(1)
		}
	}

	registry := prometheus.NewRegistry()
	mediaMetrics := metrics.NewMediaMetrics(registry)

	serviceParams := media.ServiceParams{
		Store:   store,
		Assets:  assets,
		Logger:  logg,
		Metrics: mediaMetrics,
	}
	if eventPublisher != nil {
		serviceParams.Publisher = eventPublisher
	}
	mediaService, err := media.NewService(serviceParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	validationService := validation.NewService(
		assets,
		mongoClient,
		media.NewUploadRequestPolicy(cfg.Media.MaxUploadBytes),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			RedisClient:   redisClient,
			MediaService:  mediaService,
			Validation:    validationService,
			MediaMetrics:  mediaMetrics,
			MetricsGather: registry,
			ReadyProbes:   probes,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// buildStore picks the metadata backend from what is configured: MongoDB
// when a URI is present, Postgres when a DSN is present, and the in-memory
// store otherwise. The returned db client is nil unless Postgres was chosen.
func buildStore(ctx context.Context, cfg *config.Config, logg *logger.Logger, mongoClient *mongodb.Client) (media.Store, *db.Client, error) {
	if cfg.Mongo.URI != "" {
		database, err := mongoClient.Database(ctx)
		if err != nil {
			return nil, nil, err
		}
		store, err := media.NewMongoStore(ctx, database)
		if err != nil {
			return nil, nil, err
		}
		logg.Info(ctx, "media store backend: mongodb")
		return store, nil, nil
	}

	if cfg.DB.DSN != "" {
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, nil, err
		}
		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			dbClient.Close()
			return nil, nil, err
		}
		logg.Info(ctx, "media store backend: postgres")
		return media.NewGormStore(dbClient.DB()), dbClient, nil
	}

	logg.Warn(ctx, "no database configured, using in-memory media store")
	return media.NewMemoryStore(), nil, nil
}
