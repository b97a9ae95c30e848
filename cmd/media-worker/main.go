package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/velvetrowhq/velvetrow-backend/internal/media"
	"github.com/velvetrowhq/velvetrow-backend/internal/media/consumer"
	"github.com/velvetrowhq/velvetrow-backend/pkg/cloudinary"
	"github.com/velvetrowhq/velvetrow-backend/pkg/config"
	"github.com/velvetrowhq/velvetrow-backend/pkg/db"
	"github.com/velvetrowhq/velvetrow-backend/pkg/logger"
	"github.com/velvetrowhq/velvetrow-backend/pkg/mongodb"
	"github.com/velvetrowhq/velvetrow-backend/pkg/pubsub"
)

// The purge worker consumes moderation and GDPR purge requests and deletes
// the targeted media through the same service path the API uses.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "media-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "media-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if cfg.PubSub.PurgeSubscription == "" {
		logg.Error(ctx, "resource not working: purge subscription not configured", errors.New("VELVETROW_PUBSUB_MEDIA_PURGE_SUBSCRIPTION is required"))
		os.Exit(1)
	}

	assets := cloudinary.NewClient(cfg.Cloudinary, logg)
	mongoClient := mongodb.New(cfg.Mongo, logg)
	defer func() {
		if err := mongoClient.Close(context.Background()); err != nil {
			logg.Error(context.Background(), "error closing mongodb", err)
		}
	}()

	store, dbClient, err := buildStore(ctx, cfg, logg, mongoClient)
	requireResource(ctx, logg, "media store", err)
	if dbClient != nil {
		defer dbClient.Close()
	}

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	eventPublisher, err := media.NewPublisher(pubsubClient.MediaEventsPublisher())
	requireResource(ctx, logg, "media event publisher", err)

	mediaService, err := media.NewService(media.ServiceParams{
		Store:     store,
		Assets:    assets,
		Publisher: eventPublisher,
		Logger:    logg,
	})
	requireResource(ctx, logg, "media service", err)

	purgeConsumer, err := consumer.NewPurgeConsumer(
		mediaService,
		pubsubClient.PurgeSubscription(),
		logg,
	)
	requireResource(ctx, logg, "media purge consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env": cfg.App.Env,
	})
	logg.Info(runCtx, "media purge worker ready")

	if err := purgeConsumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "media purge worker not working", err)
		os.Exit(1)
	}
}

// buildStore mirrors the API's backend selection so purges land on the same
// store the API reads from.
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
		return store, nil, nil
	}

	if cfg.DB.DSN != "" {
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, nil, err
		}
		return media.NewGormStore(dbClient.DB()), dbClient, nil
	}

	return nil, nil, errors.New("purge worker requires a persistent media store")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
